package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/talkincode/sweetshop/config"
	"github.com/talkincode/sweetshop/internal/adminapi"
	"github.com/talkincode/sweetshop/internal/app"
	"github.com/talkincode/sweetshop/internal/query"
	"github.com/talkincode/sweetshop/internal/webserver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const usage = `Usage: sweetshop [-c config.yml] <command> [flags]

Commands:
  serve     run the http api and background jobs (default)
  migrate   create or update the database schema
  seed      insert the sample catalog into an empty store
  import    create sweets from a csv file (-f file.csv)
  export    write the catalog as csv or xlsx (-f out -format csv|xlsx)
  version   print the version
`

func main() {
	cfile := flag.String("c", "", "config file path")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cmd := "serve"
	args := flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	if cmd == "version" {
		fmt.Println(config.Version)
		return
	}

	cfg, err := config.LoadConfig(*cfile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		log.Fatalf("init application: %v", err)
	}
	defer application.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		err = serve(ctx, application)
	case "migrate":
		err = application.MigrateDB(true)
	case "seed":
		err = seed(ctx, application)
	case "import":
		err = importCatalog(ctx, application, args)
	case "export":
		err = exportCatalog(ctx, application, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		zap.S().Errorf("%s failed: %v", cmd, err)
		stop()
		application.Release()
		os.Exit(1)
	}
}

func serve(ctx context.Context, application *app.Application) error {
	if err := application.StartJobs(); err != nil {
		return err
	}
	srv := webserver.Init(application.Config())
	adminapi.Init(application)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})
	return g.Wait()
}

func seed(ctx context.Context, application *app.Application) error {
	n, err := application.SeedSweets(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d sweets\n", n)
	return nil
}

func importCatalog(ctx context.Context, application *app.Application, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("f", "", "csv file to import")
	_ = fs.Parse(args)
	if *file == "" {
		return errors.New("import requires -f")
	}
	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := application.ImportCatalog(ctx, f)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d of %d rows\n", report.Created, report.Total)
	for _, fail := range report.Failures {
		fmt.Printf("  row %d: %s\n", fail.Row, fail.Error)
	}
	return nil
}

func exportCatalog(ctx context.Context, application *app.Application, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	file := fs.String("f", "", "output file, stdout when empty")
	format := fs.String("format", app.ExportCSV, "csv or xlsx")
	category := fs.String("category", "", "only export this category")
	inStock := fs.Bool("in-stock", false, "only export sweets in stock")
	_ = fs.Parse(args)

	out := os.Stdout
	if *file != "" {
		f, err := os.Create(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return application.ExportCatalog(ctx, out, *format, query.Filter{
		Category:    *category,
		InStockOnly: *inStock,
	})
}
