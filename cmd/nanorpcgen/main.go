// Command nanorpcgen generates <Base>Service dispatchers and <Base>Client
// stubs for protocol interfaces. Typical use:
//
//	//go:generate go run nano-rpc/cmd/nanorpcgen --type EchoProtocol
package main

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli"

	"nano-rpc/config"
	"nano-rpc/generator"
	"nano-rpc/logger"
	"nano-rpc/protocol"
)

const version = "0.3.0"

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "nanorpcgen"
	app.Usage = "generate nano-rpc services and client stubs from protocol interfaces"
	app.UsageText = "nanorpcgen [flags] [file.go]"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "type, t",
			Usage: "comma separated protocol interface names; default: types marked " + protocol.Directive,
		},
		cli.StringFlag{
			Name:  "output, o",
			Usage: "output file; default: <file>_nanorpc.go next to the input",
		},
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "JSON config file",
			EnvVar: "NANORPC_CONFIG",
		},
		cli.StringFlag{
			Name:  "protocol-suffix",
			Usage: "suffix every protocol name must end with",
		},
		cli.StringFlag{
			Name:  "service-suffix",
			Usage: "suffix of generated service types",
		},
		cli.StringFlag{
			Name:  "client-suffix",
			Usage: "suffix of generated client types",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
		cli.StringFlag{
			Name:  "log-format",
			Usage: "text or json",
		},
	}
	app.Action = generateCommand
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "nanorpcgen:", err)
		os.Exit(1)
	}
}

func generateCommand(c *cli.Context) (err error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	lc, err := cfg.Logger()
	if err != nil {
		return err
	}
	lc.Output = c.App.ErrWriter
	if err := logger.Init(lc); err != nil {
		return err
	}

	input := c.Args().First()
	if input == "" {
		input = os.Getenv("GOFILE")
	}
	if input == "" {
		return fmt.Errorf("no input file: pass one or run from go generate")
	}
	output := c.String("output")
	if output == "" {
		output = generator.OutputPath(input, cfg.OutputSuffix)
	}

	var names []string
	for _, name := range strings.Split(c.String("type"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	begin := time.Now()
	logger.Info("Generating", "input", input, "output", output, "types", names)

	start := logger.Phase("parse", "file", input)
	file, err := protocol.ParseFile(token.NewFileSet(), input, nil, cfg.Naming, names...)
	if err != nil {
		logger.Error("Generation failed", "phase", "parse", "error", err)
		return err
	}
	logger.PhaseDone("parse", start, "declarations", len(file.Declarations))

	data, err := generator.Generate(file, generator.Options{Source: input})
	if err != nil {
		logger.Error("Generation failed", "phase", "generate", "error", err)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	logger.Info("Generated", "output", filepath.Clean(output), "declarations", len(file.Declarations), "duration", time.Since(begin))
	return nil
}

// loadConfig layers flags over the config file and environment.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	override := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	override("protocol-suffix", &cfg.Naming.ProtocolSuffix)
	override("service-suffix", &cfg.Naming.ServiceSuffix)
	override("client-suffix", &cfg.Naming.ClientSuffix)
	override("log-level", &cfg.LogLevel)
	override("log-format", &cfg.LogFormat)
	return cfg, cfg.Validate()
}
