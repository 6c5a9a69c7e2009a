package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"nitro/markdown-safe-html/internal"
	"nitro/markdown-safe-html/internal/service/sanitizer"
)

type config struct {
	Ignore struct {
		Link []string `mapstructure:"link"`
		File []string `mapstructure:"file"`
	} `mapstructure:"ignore"`
	Render struct {
		MaxInputBytes int  `mapstructure:"maxInputBytes"`
		MaxDepth      int  `mapstructure:"maxDepth"`
		HeadingIDs    bool `mapstructure:"headingIDs"`
		Breaks        bool `mapstructure:"breaks"`
		Concurrency   int  `mapstructure:"concurrency"`
	} `mapstructure:"render"`
	Policy   sanitizer.PolicyConfig `mapstructure:"policy"`
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
}

type params struct {
	Config  string `help:"Path to the configuration file." short:"c" type:"path"`
	Verbose bool   `help:"Log the progress."`

	Render struct {
		Path   string `help:"File or directory to be rendered." arg:"true" type:"path"`
		Output string `help:"Directory where the HTML files are written. Defaults to next to the Markdown files." short:"o" type:"path"`
		Raw    bool   `help:"Also write the unsanitized output as '.raw.html'. The raw output is NOT safe to display."`
	} `cmd:"" help:"Render Markdown files into sanitized HTML."`

	Check struct {
		Path string `help:"File or directory to be checked." arg:"true" type:"path"`
	} `cmd:"" help:"Check the links of Markdown files."`

	Sanitize struct{} `cmd:"" help:"Sanitize HTML from the standard input into the standard output."`
}

func main() {
	var p params
	kctx := kong.Parse(&p, kong.Name("markdown-safe-html"), kong.Description("Render Markdown into safe HTML."))

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if p.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	client, err := configClient(p.Config)
	if err != nil {
		handleError(logger, "fail to configure the client", err)
	}
	client.Logger = logger

	ctx := executionContext()
	switch kctx.Command() {
	case "render <path>":
		client.Path = p.Render.Path
		client.Output = p.Render.Output
		client.Raw = p.Render.Raw
		if err := client.Render(ctx); err != nil {
			handleError(logger, "fail at client render", err)
		}
	case "check <path>":
		client.Path = p.Check.Path
		hasInvalidLinks, err := client.Check(ctx)
		if err != nil {
			handleError(logger, "fail at client check", err)
		}
		if hasInvalidLinks {
			os.Exit(1)
		}
	case "sanitize":
		if err := client.Sanitize(os.Stdin, os.Stdout); err != nil {
			handleError(logger, "fail at client sanitize", err)
		}
	default:
		kctx.Fatalf("unknown command '%s'", kctx.Command())
	}
}

func configClient(path string) (internal.Client, error) {
	var cfg config
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return internal.Client{}, fmt.Errorf("fail to open the config file: %w", err)
		}
		defer f.Close()

		var viper = viper.New()
		viper.SetConfigType("yaml")
		if err := viper.ReadConfig(f); err != nil {
			return internal.Client{}, fmt.Errorf("fail to read the configuration file: %w", err)
		}
		if err := viper.Unmarshal(&cfg); err != nil {
			return internal.Client{}, fmt.Errorf("fail to unmarshal the configuration: %w", err)
		}
	}

	web := internal.ClientProviderWeb{
		Config:          cfg.Provider.Web.Header,
		ConfigOverwrite: make(map[string]http.Header, len(cfg.Provider.Web.Overwrite)),
	}
	for _, overwrite := range cfg.Provider.Web.Overwrite {
		web.ConfigOverwrite[overwrite.Endpoint] = overwrite.Header
	}

	// The token may come from the environment, as in 'token: ${GITHUB_TOKEN}'.
	keys := make([]string, 0, len(cfg.Provider.GitHub))
	for key := range cfg.Provider.GitHub {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var github []internal.ClientProviderGitHub
	for _, key := range keys {
		value := cfg.Provider.GitHub[key]
		github = append(github, internal.ClientProviderGitHub{
			Owner: value.Owner,
			Token: os.ExpandEnv(value.Token),
		})
	}

	return internal.Client{
		Ignore: internal.ClientIgnore{
			File: cfg.Ignore.File,
			Link: cfg.Ignore.Link,
		},
		Pipeline: internal.ClientPipeline{
			MaxInputBytes: cfg.Render.MaxInputBytes,
			MaxDepth:      cfg.Render.MaxDepth,
			HeadingIDs:    cfg.Render.HeadingIDs,
			Breaks:        cfg.Render.Breaks,
			Concurrency:   cfg.Render.Concurrency,
		},
		Policy:   cfg.Policy,
		Provider: internal.ClientProvider{Web: web, GitHub: github},
	}, nil
}

func handleError(logger logrus.FieldLogger, msg string, err error) {
	logger.WithError(err).Error(msg)
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
