package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/orda/app/orda/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the pipeline scheduler",
	RunE: func(cmd *cobra.Command, _ []string) error {
		bc, closeConf, err := loadBootstrap()
		if err != nil {
			return err
		}
		defer closeConf()

		app, cleanup, err := initApp(bc.Server, bc.Data, bc.Auth, bc.Pipeline, bc.Simulation, bc.Trace, newLogger())
		if err != nil {
			return err
		}
		defer cleanup()

		return app.Run()
	},
}

func newApp(logger log.Logger, hs *http.Server, sched *server.Scheduler) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs, sched),
	)
}
