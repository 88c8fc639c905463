package config

import (
	"testing"

	"github.com/vulpemventures/go-elements/network"
)

func TestGetNetwork(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{network.Liquid.Name, network.Liquid.AssetID},
		{network.Testnet.Name, network.Testnet.AssetID},
		{network.Regtest.Name, network.Regtest.AssetID},
		{"", network.Liquid.AssetID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Set(NetworkKey, tt.name)
			if got := GetNetwork().AssetID; got != tt.want {
				t.Errorf("GetNetwork() asset = %v, want %v", got, tt.want)
			}
		})
	}
	Set(NetworkKey, network.Liquid.Name)
}

func TestDefaults(t *testing.T) {
	if GetUint64(DustAmountKey) == 0 {
		t.Error("dust amount default must be positive")
	}
	if GetInt(FeeRateKey) < 100 {
		t.Error("fee rate default must be at least 100 msat/vbyte")
	}
	if GetUint32(GapLimitKey) == 0 {
		t.Error("gap limit default must be positive")
	}
}
