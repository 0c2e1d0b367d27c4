package domain

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// AccountStatus represents the discovery status of a wallet account.
type AccountStatus string

// Account is the wallet account as seen by the coinjoin core. It's owned by
// the wallet account store and only referenced here.
type Account struct {
	Key         string
	Symbol      string
	DeviceState string
	Path        string
	AccountType string
	BackendType string
	Status      AccountStatus
	Syncing     bool
	Utxos       []Utxo
	Addresses   Addresses
}

// Addresses holds the derived addresses of an account along with the
// anonymity score estimated by the backend for each of them.
type Addresses struct {
	Change       []Address
	Used         []Address
	Unused       []Address
	AnonymitySet map[string]int
}

// Address is a derived address with the number of transfers it was involved
// in.
type Address struct {
	Address   string
	Path      string
	Transfers int
}

// Utxo is an unspent output owned by an account. Amount is a decimal string
// in satoshis.
type Utxo struct {
	Txid          string
	Vout          uint32
	Address       string
	Path          string
	Amount        string
	Confirmations int
}

// IsCoinjoin returns whether the account is discovered by the coinjoin
// backend.
func (a Account) IsCoinjoin() bool {
	return a.BackendType == BackendTypeCoinjoin
}

// IsTaproot returns whether the account derivation path belongs to a taproot
// scheme (BIP86 or SLIP25).
func (a Account) IsTaproot() bool {
	switch PathPurpose(a.Path) {
	case PurposeBIP86, PurposeSLIP25:
		return true
	default:
		return false
	}
}

// FindUtxoByOutpoint returns the account utxo identified by the given
// outpoint, if any.
func (a Account) FindUtxoByOutpoint(outpoint string) (Utxo, bool) {
	for _, u := range a.Utxos {
		if u.Outpoint() == outpoint {
			return u, true
		}
	}
	return Utxo{}, false
}

// IsChangeAddress returns whether the given address is one of the account
// change addresses.
func (a Account) IsChangeAddress(address string) bool {
	for _, addr := range a.Addresses.Change {
		if addr.Address == address {
			return true
		}
	}
	return false
}

// Outpoint returns the serialized outpoint of the utxo in hex format, that is
// the txid in internal byte order followed by the little endian output index.
// An empty string is returned if the txid is malformed.
func (u Utxo) Outpoint() string {
	return Outpoint(u.Txid, u.Vout)
}

// IsConfirmed ...
func (u Utxo) IsConfirmed() bool {
	return u.Confirmations > 0
}

// Outpoint serializes the given txid and output index.
func Outpoint(txid string, vout uint32) string {
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return ""
	}
	buf := make([]byte, chainhash.HashSize+4)
	copy(buf, hash[:])
	binary.LittleEndian.PutUint32(buf[chainhash.HashSize:], vout)
	return hex.EncodeToString(buf)
}

// PathPurpose returns the BIP43 purpose of a derivation path like
// m/86'/0'/0', or -1 if the path can't be parsed.
func PathPurpose(path string) int {
	segments := strings.Split(path, "/")
	if len(segments) < 2 || segments[0] != "m" {
		return -1
	}
	purpose := strings.TrimRight(segments[1], "'hH")
	n, err := strconv.Atoi(purpose)
	if err != nil {
		return -1
	}
	return n
}
