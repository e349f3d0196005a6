package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"vehicleregistry/config"
	"vehicleregistry/contract"
	"vehicleregistry/metrics"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

const version = "1.0.0"

var logger = flogging.MustGetLogger("vehicleregistry.main")

func main() {
	if err := run(); err != nil {
		logger.Errorf("Chaincode exited: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	flogging.Global.ActivateSpec(cfg.LogSpec)

	if cfg.MetricsAddress != "" {
		ops := metrics.NewServer(cfg.MetricsAddress, version)
		ops.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ops.Shutdown(ctx); err != nil {
				logger.Warningf("Ops server shutdown: %v", err)
			}
		}()
	}

	cc, err := contractapi.NewChaincode(&contract.VehicleRegistryContract{})
	if err != nil {
		return fmt.Errorf("error creating VehicleRegistryContract: %w", err)
	}
	cc.Info.Title = "vehicleregistry"
	cc.Info.Version = version

	if !cfg.AsService() {
		return cc.Start()
	}

	tlsProps, err := loadTLSProperties(cfg)
	if err != nil {
		return err
	}
	server := &shim.ChaincodeServer{
		CCID:     cfg.CCID,
		Address:  cfg.Address,
		CC:       cc,
		TLSProps: tlsProps,
	}
	logger.Infof("Starting chaincode server '%s' on %s", cfg.CCID, cfg.Address)
	return server.Start()
}

func loadTLSProperties(cfg config.Config) (shim.TLSProperties, error) {
	if cfg.TLSDisabled {
		return shim.TLSProperties{Disabled: true}, nil
	}
	key, err := os.ReadFile(cfg.TLSKeyFile)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("failed to read TLS key: %w", err)
	}
	cert, err := os.ReadFile(cfg.TLSCertFile)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("failed to read TLS cert: %w", err)
	}
	props := shim.TLSProperties{Key: key, Cert: cert}
	if cfg.ClientCAFile != "" {
		ca, err := os.ReadFile(cfg.ClientCAFile)
		if err != nil {
			return shim.TLSProperties{}, fmt.Errorf("failed to read client CA cert: %w", err)
		}
		props.ClientCACerts = ca
	}
	return props, nil
}
