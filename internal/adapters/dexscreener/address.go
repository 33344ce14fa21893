package dexscreener

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// evmChains son los chainId del proveedor cuyas direcciones son hex EVM.
var evmChains = map[string]bool{
	"ethereum":  true,
	"bsc":       true,
	"base":      true,
	"arbitrum":  true,
	"polygon":   true,
	"avalanche": true,
	"optimism":  true,
	"linea":     true,
	"blast":     true,
}

// canonicalAddress normaliza una dirección según la chain. En chains EVM el
// mismo contrato puede llegar con distinta capitalización, así que se pasa a
// checksum (20 bytes) o a minúsculas (ids de pool de 32 bytes). En el resto de
// chains se devuelve tal cual. false = vacía o no es hex EVM válido.
func canonicalAddress(chainID, addr string) (string, bool) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", false
	}
	if !evmChains[strings.ToLower(chainID)] {
		return addr, true
	}

	if common.IsHexAddress(addr) {
		return common.HexToAddress(addr).Hex(), true
	}
	b, err := hexutil.Decode(addr)
	if err != nil || len(b) != common.HashLength {
		return "", false
	}
	return common.BytesToHash(b).Hex(), true
}
