package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/talkincode/toughstore/config"
	"github.com/talkincode/toughstore/internal/adminapi"
	"github.com/talkincode/toughstore/internal/app"
	"github.com/talkincode/toughstore/internal/cart"
	"github.com/talkincode/toughstore/internal/catalog"
	"github.com/talkincode/toughstore/internal/notify"
	"github.com/talkincode/toughstore/internal/order"
	"github.com/talkincode/toughstore/internal/telegram"
	"github.com/talkincode/toughstore/internal/webserver"
)

func main() {
	cliApp := &cli.App{
		Name:  "toughstore",
		Usage: "e-commerce back office with admin REST API and Telegram storefront",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "conf",
				Aliases: []string{"c"},
				Usage:   "configuration file path",
				Value:   "/etc/toughstore.yml",
			},
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:  "initdb",
				Usage: "drop and recreate all database tables",
				Action: func(c *cli.Context) error {
					cfg := config.LoadConfig(c.String("conf"))
					application := app.NewApplication(cfg)
					application.Init(cfg)
					defer application.Release()
					application.InitDb()
					fmt.Println("database initialized")
					return nil
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(c *cli.Context) error {
	cfg := config.LoadConfig(c.String("conf"))

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalogSrv := catalog.NewService(application.DB(), cfg.GetUploadDir())
	cartSrv := cart.NewService(application.DB())
	orderSrv := order.NewService(application.DB(), cartSrv)
	notifySrv := notify.NewService(application.DB(), cfg.Smtp)

	if cfg.Telegram.Enabled && cfg.Telegram.Token != "" {
		bot, err := telegram.New(
			cfg.Telegram.Token,
			cfg.Telegram.AdminChatId,
			cfg.Admin.Email,
			catalogSrv, cartSrv, orderSrv, notifySrv,
		)
		if err != nil {
			zap.L().Error("telegram bot unavailable", zap.Error(err))
		} else {
			notifySrv.SetChatSender(bot)
			bot.Start(ctx)
		}
	}

	server := webserver.Init(application)
	adminapi.InitRouter(application, catalogSrv, orderSrv, notifySrv)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		zap.L().Info("shutting down", zap.String("signal", sig.String()))
		return nil
	}
}
