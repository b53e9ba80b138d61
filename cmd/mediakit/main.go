package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/jfk9w-go/flu"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"mediakit/app"
	"mediakit/core/media"
	"mediakit/util"
	gormutil "mediakit/util/gorm"
)

const usage = `usage: mediakit <config.yml> <command> [args]

commands:
  import <type> <file-or-url> [key=value ...]
  process <uuid>
  show <uuid>
  retrieve <uuid> <rendition> <output>`

func main() {
	if len(os.Args) < 3 {
		fmt.Println(usage)
		os.Exit(2)
	}

	config := new(app.Config)
	buf, err := app.CollectConfig("MEDIAKIT_", flu.File(os.Args[1]))
	if err != nil {
		panic(err)
	}
	if err := flu.DecodeFrom(buf, util.YAML(config)); err != nil {
		panic(err)
	}
	if err := config.ConfigureLogging(); err != nil {
		panic(err)
	}

	db, err := config.Connect()
	if err != nil {
		panic(errors.Wrap(err, "connect database"))
	}
	defer func() {
		_ = gormutil.Close(db)
	}()

	service, err := config.Service(db)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	if err := service.Init(ctx); err != nil {
		panic(errors.Wrap(err, "init service"))
	}

	if err := run(ctx, service, config.Concurrency, os.Args[2], os.Args[3:]); err != nil {
		logrus.Fatalf("%s: %s", os.Args[2], err)
	}
}

func run(ctx context.Context, service *media.Service, concurrency int, command string, args []string) error {
	switch command {
	case "import":
		if len(args) < 2 {
			return errors.New("import requires a type and a file or URL")
		}

		in := media.CreateIn{Type: args[0], Meta: metaArgs(args[2:])}
		if strings.HasPrefix(args[1], "http://") || strings.HasPrefix(args[1], "https://") {
			in.FileURL = args[1]
		} else {
			in.FilePath = args[1]
		}

		record, err := service.Create(ctx, in)
		if err != nil {
			return err
		}

		fmt.Println(record.ID)
		return nil

	case "process":
		if len(args) == 0 {
			return errors.New("media uuid required")
		}

		manager := &media.Manager{Service: service, Concurrency: concurrency}
		manager.Init(ctx)
		for _, arg := range args {
			id, err := uuid.FromString(arg)
			if err != nil {
				_ = manager.Close()
				return errors.Wrapf(err, "parse uuid %q", arg)
			}

			manager.Submit(id)
		}

		return manager.Close()

	case "show":
		record, err := load(ctx, service, args)
		if err != nil {
			return err
		}

		// hide the Closer so stdout survives the encode
		return flu.EncodeTo(flu.JSON(record), flu.IO{W: struct{ io.Writer }{os.Stdout}})

	case "retrieve":
		if len(args) < 3 {
			return errors.New("retrieve requires a uuid, a rendition name and an output path")
		}

		record, err := load(ctx, service, args)
		if err != nil {
			return err
		}

		data, err := service.Retrieve(ctx, record, args[1])
		if err != nil {
			return err
		}

		_, err = flu.Copy(data, flu.File(args[2]))
		return err

	default:
		return errors.Errorf("unknown command %q", command)
	}
}

func load(ctx context.Context, service *media.Service, args []string) (*media.Media, error) {
	if len(args) < 1 {
		return nil, errors.New("media uuid required")
	}

	id, err := uuid.FromString(args[0])
	if err != nil {
		return nil, errors.Wrapf(err, "parse uuid %q", args[0])
	}

	return service.Get(ctx, id)
}

func metaArgs(args []string) map[string]interface{} {
	if len(args) == 0 {
		return nil
	}

	meta := make(map[string]interface{}, len(args))
	for _, arg := range args {
		if equals := strings.Index(arg, "="); equals > 0 {
			meta[arg[:equals]] = arg[equals+1:]
		}
	}

	return meta
}
