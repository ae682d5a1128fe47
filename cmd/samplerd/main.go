package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"cloud.google.com/go/storage"
	"github.com/carbocation/tcrsampler/compileinfo"
	_ "github.com/carbocation/tcrsampler/compileinfoprint"
	"github.com/carbocation/tcrsampler/sampler"
	"github.com/sirupsen/logrus"
)

var global *Global

func main() {
	errors := make(chan error, 1)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGUSR1,
		syscall.SIGHUP,
	)

	backgroundPath := flag.String("background", "", "Background artifact written by buildbackground: a TSV (optionally compressed, local or gs://) or a .db SQLite file.")
	organism := flag.String("organism", "human", "Organism: human or mouse.")
	port := flag.Int("port", 9020, "Port for HTTP server")
	weight := flag.String("weight", "", "Weight draws by freq or count unless a request says otherwise. Defaults to the column the background was built with.")
	maxDraws := flag.Int("max-draws", sampler.DefaultMaxDraws, "Maximum n*depth for one V/J pair in a request.")
	flag.Parse()

	if *backgroundPath == "" {
		flag.PrintDefaults()
		return
	}

	var sclient *storage.Client
	if strings.HasPrefix(*backgroundPath, "gs://") {
		var err error
		sclient, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
	}

	s, err := sampler.New(*organism, sampler.WithLogger(logrus.StandardLogger()))
	if err != nil {
		log.Fatalln(err)
	}

	global = &Global{
		Site:           "samplerd",
		log:            log.New(os.Stderr, log.Prefix(), log.Ldate|log.Ltime),
		storageClient:  sclient,
		BackgroundPath: *backgroundPath,
		Weight:         *weight,
		MaxDraws:       *maxDraws,
		sampler:        s,
	}

	if err := global.Reload(); err != nil {
		log.Fatalln(err)
	}

	logrus.WithFields(compileinfo.Get().Fields()).WithField("port", *port).Info("Starting samplerd")

	go func() {
		global.log.Println("Starting HTTP server on port", *port)
		if err := http.ListenAndServe(fmt.Sprintf(`:%d`, *port), router(global)); err != nil {
			errors <- err
			global.log.Println(err)
			sig <- syscall.SIGTERM
			return
		}
	}()

Outer:
	for {
		select {
		case sigl := <-sig:

			if sigl == syscall.SIGUSR1 {
				SigStatus()
				continue
			}

			// SIGHUP re-reads the background from disk
			if sigl == syscall.SIGHUP {
				if err := global.Reload(); err != nil {
					global.log.Println("Keeping the previous background:", err)
				}
				continue
			}

			// By default, exit
			global.log.Printf("\nExit: %s\n", sigl.String())

			break Outer

		case err := <-errors:
			if err == nil {
				global.log.Println("Finished")
				break Outer
			}

			// Return a status code indicating failure
			global.log.Println("Exiting due to error", err)
			os.Exit(1)
		}
	}
}

func SigStatus() {
	global.log.Println("There are", runtime.NumGoroutine(), "goroutines running")
}
