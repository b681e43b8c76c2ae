package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/voicegate/internal/cli"
)

var (
	version = "0.0.1"
)

// debugLogName is where log output goes while the terminal UI owns the screen
const debugLogName = "voicegate-debug.log"

// CLI defines the command-line interface
type CLI struct {
	Version  versionFlag `short:"v" help:"Show version information"`
	LogLevel string      `default:"warning" enum:"trace,debug,info,warning,error" env:"VOICEGATE_LOG_LEVEL" help:"Verbosity of ${debuglog}"`

	Classify ClassifyCmd `cmd:"" help:"Classify recordings into voice and noise segments"`
	Record   RecordCmd   `cmd:"" help:"Record a mono 16 kHz WAV from the default microphone"`
}

// versionFlag prints the styled version banner before any other parsing
type versionFlag bool

func (v versionFlag) BeforeReset(app *kong.Kong, vars kong.Vars) error {
	cli.PrintVersion(app.Stdout, vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	// A missing .env is normal; anything else is worth reporting
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		cli.PrintWarning(fmt.Sprintf("failed to load .env: %v", err))
	}

	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("voicegate"),
		kong.Description("Voice/noise classifier for mono 16 kHz recordings"),
		kong.UsageOnError(),
		kong.Vars{
			"version":  version,
			"debuglog": debugLogName,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	ctx, closeLog, err := newLoggerContext(cliArgs.LogLevel)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run()
	belt.Flush(ctx)
	closeLog()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// newLoggerContext opens the debug log and returns a context carrying a
// go-belt logger that writes to it
func newLoggerContext(levelName string) (context.Context, func(), error) {
	var level logger.Level
	if err := level.Set(levelName); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}

	debugLog, err := os.Create(debugLogName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", debugLogName, err)
	}

	ll := logrus.New()
	ll.SetOutput(debugLog)
	ll.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})

	l := xlogrus.New(ll).WithLevel(level)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	return ctx, func() { debugLog.Close() }, nil
}
