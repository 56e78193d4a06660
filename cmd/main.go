package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	chainpay "github.com/liberland/chainpay"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name: "chainpay",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db_dir", Value: "./data/bolt", Usage: "bolt db dir path", EnvVars: []string{"DB_DIR"}},
			&cli.StringFlag{Name: "mysql", Value: "root@tcp(127.0.0.1:3306)/chainpay?charset=utf8mb4&parseTime=True&loc=Local", Usage: "mysql dsn", EnvVars: []string{"MYSQL"}},
			&cli.StringFlag{Name: "sqlite", Value: "./data/sqlite", Usage: "sqlite db dir path", EnvVars: []string{"SQLITE"}},
			&cli.BoolFlag{Name: "use_sqlite", Value: false, Usage: "run with sqlite instead of mysql", EnvVars: []string{"USE_SQLITE"}},
			&cli.StringFlag{Name: "key_path", Value: "./data/private_key.pem", Usage: "webhook signing key path", EnvVars: []string{"KEY_PATH"}},
			&cli.StringFlag{Name: "chain_url", Value: "wss://mainnet.liberland.org", Usage: "chain node ws rpc url", EnvVars: []string{"CHAIN_URL"}},
			&cli.StringFlag{Name: "indexer_url", Value: "https://archive.mainnet.liberland.org/graphql", Usage: "explorer graphql url", EnvVars: []string{"INDEXER_URL"}},

			&cli.StringFlag{Name: "port", Value: ":8080", EnvVars: []string{"PORT"}},
		},
		Action: run,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	s := chainpay.New(
		c.String("db_dir"), c.String("mysql"), c.String("sqlite"), c.Bool("use_sqlite"),
		c.String("key_path"), c.String("chain_url"), c.String("indexer_url"),
	)
	s.Run(c.String("port"))

	<-signals
	s.Close()

	return nil
}
