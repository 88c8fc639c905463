package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/tdex-network/liquid-wallet/config"
	"github.com/tdex-network/liquid-wallet/internal/core/application"
	"github.com/tdex-network/liquid-wallet/internal/infrastructure/blockchain/esplora"
	dbbadger "github.com/tdex-network/liquid-wallet/internal/infrastructure/storage/db/badger"
)

var statePath = path.Join(config.GetDatadir(), "state.json")

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "liquid-wallet CLI"
	app.Usage = "watch-only wallet for Liquid and Elements networks"
	app.Commands = append(
		app.Commands,
		&configCmd,
		&addressCmd,
		&syncCmd,
		&balanceCmd,
		&utxosCmd,
		&txsCmd,
		&tipCmd,
		&sendCmd,
		&sendAllCmd,
		&issueCmd,
		&burnCmd,
		&broadcastCmd,
	)

	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// getWalletService assembles the wallet from the stored descriptor, the
// configured explorer and the on-disk database. Callers own the returned
// service and must Close it.
func getWalletService() (application.WalletService, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	desc, ok := state["descriptor"]
	if !ok || desc == "" {
		return nil, errors.New("no descriptor configured: try 'config init'")
	}

	backend, err := esplora.NewService(esplora.ServiceOpts{
		APIURL:             config.GetString(config.ExplorerEndpointKey),
		RequestsPerSecond:  config.GetInt(config.ExplorerRequestsPerSecondKey),
		TxFetchConcurrency: config.GetInt(config.TxFetchConcurrencyKey),
		GapLimit:           config.GetUint32(config.GapLimitKey),
	})
	if err != nil {
		return nil, err
	}

	repo, err := dbbadger.NewKVStore(config.GetDbDir(), nil)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return application.NewWalletService(application.WalletServiceOpts{
		Descriptor:  desc,
		Backend:     backend,
		Repo:        repo,
		Network:     config.GetNetwork(),
		GapLimit:    config.GetUint32(config.GapLimitKey),
		DustAmount:  config.GetUint64(config.DustAmountKey),
		MsatPerByte: config.GetInt(config.FeeRateKey),
	})
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := ioutil.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	json.Unmarshal(file, &data)

	return data, nil
}

func setState(data map[string]string) error {
	if _, err := os.Stat(config.GetDatadir()); os.IsNotExist(err) {
		os.MkdirAll(config.GetDatadir(), os.ModeDir|0755)
	}

	currentData, _ := getState()
	if currentData == nil {
		currentData = map[string]string{}
	}
	for k, v := range data {
		currentData[k] = v
	}

	jsonString, err := json.Marshal(currentData)
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(statePath, jsonString, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}
	return nil
}

func printRespJSON(resp interface{}) {
	jsonString, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(jsonString))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[liquid-wallet] %v\n", err)
	os.Exit(1)
}
