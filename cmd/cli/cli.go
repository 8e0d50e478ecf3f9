package cli

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/canopy-network/amm/cmd/rpc"
	"github.com/canopy-network/amm/fsm"
	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/canopy-network/amm/store"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rootCmd = &cobra.Command{
	Use:   "ammd",
	Short: "a constant product liquidity pool node",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(rpc.SoftwareVersion)
	},
}

var (
	client, config, l = &rpc.Client{}, lib.Config{}, lib.LoggerI(nil)
	DataDir           = ""
)

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(txCmd)
	rootCmd.PersistentFlags().StringVar(&DataDir, "data-dir", lib.DefaultDataDirPath(), "custom data directory location")
	// the config is loaded once the flags are parsed
	cobra.OnInitialize(func() {
		config = InitializeDataDirectory(DataDir, lib.NewDefaultLogger())
		l = lib.NewLogger(lib.LoggerConfig{Level: config.GetLogLevel()}, config.DataDirPath)
		client = rpc.NewClient(config.RPCUrl, config.ClientRetries)
	})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "start the amm node",
	Run: func(cmd *cobra.Command, args []string) {
		Start()
	},
}

// Start() is the entrypoint of the node
func Start() {
	// initialize and start the metrics server
	metrics := lib.NewMetricsServer(config.MetricsConfig, l)
	// create a new database object from the config
	db, err := store.New(config, l)
	if err != nil {
		l.Fatal(err.Error())
	}
	// initialize the state machine
	sm, err := fsm.New(config, db, metrics, l)
	if err != nil {
		l.Fatal(err.Error())
	}
	l.Infof("Serving program %s against market program %s", sm.Program(), sm.DexProgram())
	// initialize the rpc server
	rpcServer := rpc.NewServer(sm, config, l)
	// start the metrics server
	metrics.Start()
	// start the rpc server
	if err = rpcServer.Start(); err != nil {
		l.Fatal(err.Error())
	}
	// block until a kill signal is received
	waitForKill()
	rpcServer.Stop()
	// gracefully stop the metrics server
	metrics.Stop()
	if err = db.Close(); err != nil {
		l.Error(err.Error())
	}
	os.Exit(0)
}

// waitForKill() blocks until a kill signal is received
func waitForKill() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGABRT)
	// block until kill signal is received
	s := <-stop
	l.Infof("Exit command %s received", s)
}

// InitializeDataDirectory() creates the data directory and its config file if missing, then loads the config
func InitializeDataDirectory(dataDirPath string, log lib.LoggerI) (c lib.Config) {
	// make the data dir if missing
	if err := os.MkdirAll(dataDirPath, os.ModePerm); err != nil {
		log.Fatal(err.Error())
	}
	// make the config.json file if missing
	configFilePath := filepath.Join(dataDirPath, lib.ConfigFilePath)
	if _, err := os.Stat(configFilePath); errors.Is(err, os.ErrNotExist) {
		log.Infof("Creating %s file", lib.ConfigFilePath)
		if err = lib.DefaultConfig().WriteToFile(configFilePath); err != nil {
			log.Fatal(err.Error())
		}
	}
	c, err := lib.NewConfigFromFile(configFilePath)
	if err != nil {
		log.Fatal(err.Error())
	}
	c.DataDirPath = dataDirPath
	return
}

func writeToConsole(a any, err error) {
	if err != nil {
		l.Fatal(err.Error())
	}
	switch a.(type) {
	case int, uint32, uint64:
		p := message.NewPrinter(language.English)
		if _, err := p.Printf("%d\n", a); err != nil {
			l.Fatal(err.Error())
		}
	case string, *string:
		fmt.Println(a)
	default:
		s, err := lib.MarshalJSONIndentString(a)
		if err != nil {
			l.Fatal(err.Error())
		}
		fmt.Println(s)
	}
}

func argToPublicKey(arg string) crypto.PublicKey {
	pk, err := lib.PublicKeyFromString(arg)
	if err != nil {
		l.Fatal(err.Error())
	}
	return pk
}

func argToAmount(arg string) uint64 {
	amount, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		l.Fatal(err.Error())
	}
	return amount
}
