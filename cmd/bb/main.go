package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	bb "github.com/t7a/bundlebase"
	"github.com/t7a/bundlebase/db"

	"github.com/docopt/docopt-go"
)

func init() {
	var debug string
	debug = os.Getenv("DEBUG")
	if debug == "1" {
		log.SetLevel(log.DebugLevel)
	}
	logrus.SetReportCaller(true)
	formatter := &logrus.TextFormatter{
		CallerPrettyfier: caller(),
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyFile: "caller",
		},
	}
	formatter.TimestampFormat = "15:04:05.999999999"
	logrus.SetFormatter(formatter)
}

// caller returns string presentation of log caller which is formatted as
// `/path/to/file.go:line_number`. e.g. `/internal/app/api.go:25`
func caller() func(*runtime.Frame) (function string, file string) {
	return func(f *runtime.Frame) (function string, file string) {
		p, _ := os.Getwd()
		return "", fmt.Sprintf("%s:%d gid %d", strings.TrimPrefix(f.File, p), f.Line, bb.GetGID())
	}
}

type Opts struct {
	Init     bool
	Walk     bool
	Spool    bool
	Pop      bool
	Ls       bool
	Txid     string
	Filename string
	File     bool `docopt:"-f"`
	Quiet    bool `docopt:"-q"`
}

func main() {
	os.Exit(run())
}

func run() (rc int) {

	usage := `bundlebase

Usage:
  bb init
  bb walk [-q] [-f <filename>] <txid>
  bb spool [-f <filename>] <txid>
  bb pop
  bb ls

Options:
  -h --help     Show this screen.
  --version     Show version.
`
	parser := &docopt.Parser{OptionsFirst: false}
	o, _ := parser.ParseArgs(usage, os.Args[1:], "0.0")
	var opts Opts
	err := o.Bind(&opts)
	if err != nil {
		log.Error(err)
		return 22
	}
	log.Debug(opts)

	cfg, err := bb.LoadConfig(confpath())
	if err != nil {
		log.Error(err)
		return 22
	}

	switch true {
	case opts.Init:
		spool, err := db.Db{Dir: cfg.SpoolDir}.Create()
		if err != nil {
			log.Error(err)
			return 42
		}
		fmt.Printf("Initialized empty spool in %s\n", spool.Dir)
	case opts.Walk:
		n, err := walk(cfg, opts, nil)
		if err != nil {
			log.Error(err)
			return 42
		}
		if opts.Quiet {
			fmt.Println(n)
		}
	case opts.Spool:
		spool, err := db.Open(cfg.SpoolDir)
		if err != nil {
			log.Error(err)
			return 42
		}
		n, err := walk(cfg, opts, spool)
		if err != nil {
			log.Error(err)
			return 42
		}
		fmt.Printf("spooled %d items\n", n)
	case opts.Pop:
		spool, err := db.Open(cfg.SpoolDir)
		if err != nil {
			log.Error(err)
			return 42
		}
		item, err := spool.Pop()
		if err != nil {
			log.Error(err)
			return 42
		}
		if item == nil {
			return 1
		}
		err = render(os.Stdout, item)
		if err != nil {
			log.Error(err)
			return 25
		}
	case opts.Ls:
		spool, err := db.Open(cfg.SpoolDir)
		if err != nil {
			log.Error(err)
			return 42
		}
		items, err := spool.Ls()
		if err != nil {
			log.Error(err)
			return 42
		}
		for _, item := range items {
			err = render(os.Stdout, item)
			if err != nil {
				log.Error(err)
				return 25
			}
		}
	}
	return 0
}

func confpath() (path string) {
	path = os.Getenv("BBCONF")
	if path == "" {
		path = "bb.toml"
	}
	return
}

// walk decodes one bundle stream end to end.  Items go to the spool
// when one is given, to stdout otherwise.  The producer side runs the
// Walker in its own goroutine and closes the channel when it's done;
// this side drains it.
func walk(cfg bb.Config, opts Opts, spool *db.Db) (n int, err error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rd, err := open(ctx, cfg, opts)
	if err != nil {
		return
	}
	defer rd.Close()

	items := make(chan *bb.DataItem, cfg.Capacity)
	walker := bb.Walker{MaxDepth: cfg.MaxDepth}.New(items)

	var wg sync.WaitGroup
	var walkErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(items)
		walkErr = walker.Walk(ctx, rd, opts.Txid)
	}()

	for item := range items {
		switch {
		case spool != nil:
			err = spool.Push(item)
		case !opts.Quiet:
			err = render(os.Stdout, item)
		}
		if err != nil {
			// stop the producer and drain what's left
			cancel()
			for range items {
			}
			break
		}
		n++
	}
	wg.Wait()

	if err == nil {
		err = walkErr
	}
	return
}

func open(ctx context.Context, cfg bb.Config, opts Opts) (rd io.ReadCloser, err error) {
	if opts.File {
		return os.Open(opts.Filename)
	}
	return bb.Fetch(ctx, cfg.Gateway, opts.Txid)
}

func render(w io.Writer, item *bb.DataItem) (err error) {
	buf, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return
	}
	_, err = fmt.Fprintf(w, "%s\n", buf)
	return
}
