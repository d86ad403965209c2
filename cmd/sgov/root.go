package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path"
	"strconv"
	"syscall"
	"time"

	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/summerfi/sumr-gov/app"
	app_config "github.com/summerfi/sumr-gov/config"
	"github.com/summerfi/sumr-gov/crypto"
	"github.com/summerfi/sumr-gov/indexer"
	"github.com/summerfi/sumr-gov/relay"
)

var homeDir string

var rootCmd = &cobra.Command{
	Use:   "sgov",
	Short: "sgov runs a decay-weighted governance chain",
	Long: `A governance chain with decay-weighted voting power
and cross-chain proposal relay.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&homeDir, "homedir", "d", "", "home directory")
}

func run(cmd *cobra.Command, args []string) {
	if homeDir == "" {
		homeDir = os.ExpandEnv("$HOME/.sgov")
	}

	appConfig := &app_config.Config{
		Config: app_config.DefaultCometConfig(),
		App:    app_config.DefaultGovAppConfig(homeDir),
	}

	appConfig.SetRoot(homeDir)
	viper.SetConfigFile(fmt.Sprintf("%s/%s", homeDir, "config/config.toml"))

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Reading config: %v", err)
	}
	if err := viper.Unmarshal(appConfig); err != nil {
		log.Fatalf("Decoding config: %v", err)
	}
	if err := appConfig.ValidateBasic(); err != nil {
		log.Fatalf("Invalid configuration data: %v", err)
	}

	pv := privval.LoadFilePV(
		appConfig.PrivValidatorKeyFile(),
		appConfig.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(appConfig.NodeKeyFile())
	if err != nil {
		log.Fatalf("failed to load node's key: %v", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(appConfig.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}

	appConfig.App.Home = homeDir
	appConfig.App.TimeoutCommit = uint64(appConfig.Consensus.TimeoutCommit.Seconds())
	govApp, err := app.NewGovApp(appConfig.App, logger)
	if err != nil {
		log.Fatalf("new App err:%v", err)
	}

	node, err := nm.NewNode(
		appConfig.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(govApp),
		nm.DefaultGenesisDocProviderFunc(appConfig.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(appConfig.Instrumentation),
		logger,
	)
	if err != nil {
		log.Fatalf("Creating node: %v", err)
	}

	govApp.Start(node.BlockStore())
	err = node.Start()
	if err != nil {
		log.Fatalf("start comet node err %s", err.Error())
	}

	time.Sleep(time.Second * 5)
	if !node.IsRunning() {
		log.Fatal("comet node unable to run")
	}
	rpcUrl, err := url.Parse(appConfig.Config.RPC.ListenAddress)
	if err != nil {
		log.Fatalf("new parse url err %s", err.Error())
	}
	rpcUrl.Scheme = "http"
	// start indexer
	if appConfig.App.IndexerListen != "" {
		dbPath := path.Join(appConfig.RootDir, "indexer.db")
		chainIndexer, err := indexer.NewChainIndexer(logger, dbPath, rpcUrl.String())
		if err != nil {
			log.Fatalf("new chain indexer err %s", err.Error())
		}
		go chainIndexer.Start(context.TODO())
		go indexer.NewService(appConfig.App.IndexerListen, chainIndexer).Start()
	}
	// start the relay endpoint on hub nodes with configured destinations
	if appConfig.App.Gov.Hub && appConfig.App.Relay != nil && len(appConfig.App.Relay.Destinations) > 0 {
		dests := make(map[uint32]string, len(appConfig.App.Relay.Destinations))
		for id, dst := range appConfig.App.Relay.Destinations {
			chainId, err := strconv.ParseUint(id, 10, 32)
			if err != nil {
				log.Fatalf("bad relay destination chain id %q: %v", id, err)
			}
			dests[uint32(chainId)] = dst
		}
		signer := crypto.LoadFilePV(path.Join(homeDir, appConfig.App.Relay.KeyFile))
		transport, err := relay.NewRpcTransport(signer, dests, appConfig.App.Relay.Fee, logger)
		if err != nil {
			log.Fatalf("new relay transport err %s", err.Error())
		}
		cli, err := comethttp.New(rpcUrl.String(), "/websocket")
		if err != nil {
			log.Fatalf("new relay rpc client err %s", err.Error())
		}
		endpoint := relay.NewEndpoint(appConfig.App.Gov, govApp.StateDB(), transport, logger)
		go endpoint.Watch(context.TODO(), cli)
	}

	defer func() {
		log.Println("shut done...")
		done := make(chan struct{})
		go func() {
			defer close(done)
			err = node.Stop()
			if err != nil {
				log.Fatalf("stop comet node err %s", err.Error())
			}
			node.Wait()
			govApp.Stop()
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
