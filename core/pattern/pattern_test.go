package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	ctx := Context{"media_path_prefix": "/data"}.
		WithDate(time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC)).
		WithFile("cat", "jpg").
		With("name", "medium")

	path, err := Resolve("{media_path_prefix}/image/{year}/{month}/{day}/{filename}-{name}.{extension}", ctx)
	assert.Nil(t, err)
	assert.Equal(t, "/data/image/2021/05/01/cat-medium.jpg", path)
}

func TestResolve_noPlaceholders(t *testing.T) {
	path, err := Resolve("/static/logo.png", Context{})
	assert.Nil(t, err)
	assert.Equal(t, "/static/logo.png", path)
}

func TestResolve_missingPlaceholder(t *testing.T) {
	_, err := Resolve("{source_path_prefix}/{filename}.{extension}", Context{"filename": "cat"})
	missing := new(MissingPlaceholderError)
	assert.ErrorAs(t, err, &missing)
	assert.Equal(t, "source_path_prefix", missing.Key)
}

func TestResolve_unterminated(t *testing.T) {
	_, err := Resolve("{filename", Context{"filename": "cat"})
	assert.NotNil(t, err)
}

func TestContext_immutable(t *testing.T) {
	base := Context{"a": "1"}
	_ = base.With("b", "2")
	_, ok := base["b"]
	assert.False(t, ok)
}
