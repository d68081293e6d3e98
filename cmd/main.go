package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"nitro/markdown-visual/internal"
	"nitro/markdown-visual/internal/service"
	"nitro/markdown-visual/internal/service/settings"
)

type config struct {
	Settings     settings.Defaults                 `mapstructure:"settings"`
	Objects      map[string]map[string]interface{} `mapstructure:"objects"`
	Localization map[string]string                 `mapstructure:"localization"`
	Markdown     struct {
		Flavor string `mapstructure:"flavor"`
	} `mapstructure:"markdown"`
	Diagram struct {
		Renderer    string        `mapstructure:"renderer"`
		Language    string        `mapstructure:"language"`
		Prefix      string        `mapstructure:"prefix"`
		Script      string        `mapstructure:"script"`
		Bin         string        `mapstructure:"bin"`
		NoSandbox   bool          `mapstructure:"noSandbox"`
		Timeout     time.Duration `mapstructure:"timeout"`
		Concurrency int           `mapstructure:"concurrency"`
	} `mapstructure:"diagram"`
	Provider struct {
		Web struct {
			Header    map[string][]string `mapstructure:"header"`
			Overwrite []struct {
				Endpoint string              `mapstructure:"endpoint"`
				Header   map[string][]string `mapstructure:"header"`
			} `mapstructure:"overwrite"`
		} `mapstructure:"web"`
		GitHub map[string]struct {
			Owner string `mapstructure:"owner"`
			Token string `mapstructure:"token"`
		} `mapstructure:"github"`
	} `mapstructure:"provider"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func main() {
	var params struct {
		Source          string `help:"Markdown file path or URL to be rendered" required:"true" arg:"true" type:"string"`
		Config          string `help:"Path to the configuration file." short:"c" type:"string"`
		Output          string `help:"Write the output to the file instead of the standard output." short:"o" type:"string"`
		Standalone      bool   `help:"Wrap the container into a complete HTML page."`
		FormattingModel bool   `help:"Print the property pane formatting model instead of the markup." name:"formatting-model"`
		Click           bool   `help:"Click every link after the rendering and report the navigation."`
	}
	kong.Parse(&params, kong.Name("markdown-visual"))

	cfg, err := readConfig(params.Config)
	if err != nil {
		handleError("fail to read the configuration: %s", err.Error())
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		handleError("fail to configure the logger: %s", err.Error())
	}
	defer logger.Sync() // nolint: errcheck

	var document io.Writer = os.Stdout
	if params.Output != "" {
		f, err := os.Create(params.Output)
		if err != nil {
			handleError("fail to create the output file: %s", err.Error())
		}
		defer f.Close()
		document = f
	}

	client := configClient(cfg)
	client.Source = params.Source
	client.Logger = logger
	client.Output = internal.ClientOutput{
		Document:        document,
		Report:          os.Stderr,
		Standalone:      params.Standalone,
		FormattingModel: params.FormattingModel,
		Click:           params.Click,
	}

	hasFailures, err := client.Run(executionContext())
	if err != nil {
		handleError("fail at client execution: %s", err.Error())
	}
	if hasFailures {
		os.Exit(1)
	}
}

func readConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return config{}, fmt.Errorf("fail to open the config file: %w", err)
	}
	defer f.Close()

	var viper = viper.New()
	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(f); err != nil {
		return config{}, fmt.Errorf("fail to read the configuration file: %w", err)
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("fail to unmarshal the configuration: %w", err)
	}
	return cfg, nil
}

func configClient(cfg config) internal.Client {
	github := make([]internal.ClientProviderGithub, 0, len(cfg.Provider.GitHub))
	for _, gh := range cfg.Provider.GitHub {
		github = append(github, internal.ClientProviderGithub{
			Token: gh.Token,
			Owner: gh.Owner,
		})
	}

	web := internal.ClientProviderWeb{
		Config:          cfg.Provider.Web.Header,
		ConfigOverwrite: make(map[string]http.Header, len(cfg.Provider.Web.Overwrite)),
	}
	for _, overwrite := range cfg.Provider.Web.Overwrite {
		web.ConfigOverwrite[overwrite.Endpoint] = overwrite.Header
	}

	return internal.Client{
		Flavor:       cfg.Markdown.Flavor,
		Settings:     cfg.Settings,
		Objects:      objects(cfg.Objects),
		Localization: cfg.Localization,
		Diagram: internal.ClientDiagram{
			Renderer:    cfg.Diagram.Renderer,
			Language:    cfg.Diagram.Language,
			Prefix:      cfg.Diagram.Prefix,
			Script:      cfg.Diagram.Script,
			Bin:         cfg.Diagram.Bin,
			NoSandbox:   cfg.Diagram.NoSandbox,
			Timeout:     cfg.Diagram.Timeout,
			Concurrency: cfg.Diagram.Concurrency,
		},
		Provider: internal.ClientProvider{
			Github: github,
			Web:    web,
		},
	}
}

// objects restores the property names, viper lowercases every key.
func objects(raw map[string]map[string]interface{}) service.DataViewObjects {
	names := make(map[string]string)
	for _, name := range []string{
		settings.CardName,
		settings.FontSizeName,
		settings.FontColorName,
		settings.BackgroundColorName,
		settings.FontFamilyName,
	} {
		names[strings.ToLower(name)] = name
	}
	canonical := func(key string) string {
		if name, ok := names[strings.ToLower(key)]; ok {
			return name
		}
		return key
	}

	result := make(service.DataViewObjects, len(raw))
	for object, properties := range raw {
		values := make(map[string]interface{}, len(properties))
		for property, value := range properties {
			values[canonical(property)] = value
		}
		result[canonical(object)] = values
	}
	return result
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if level == "" {
		level = "warn"
	}
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", level, err)
	}
	return cfg.Build()
}

func handleError(mask string, params ...interface{}) {
	fmt.Printf(mask+"\n", params...)
	os.Exit(1)
}

func executionContext() context.Context {
	ctx, ctxCancel := context.WithCancel(context.Background())
	go func() {
		chSignal := make(chan os.Signal, 1)
		signal.Notify(chSignal, os.Interrupt)
		<-chSignal
		ctxCancel()
	}()
	return ctx
}
