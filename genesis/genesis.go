// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis describes a bridge deployment: domains, mediator
// addresses, administrative roles and the initial asset allocation.
package genesis

import (
	"io"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakebridge/builtin/mirror"
	"github.com/vechain/stakebridge/builtin/staker"
	"github.com/vechain/stakebridge/builtin/token"
	"github.com/vechain/stakebridge/log"
	"github.com/vechain/stakebridge/thor"
)

var logger = log.WithContext("pkg", "genesis")

// Account is an initial asset allocation.
type Account struct {
	Address thor.Address          `yaml:"address"`
	Balance *math.HexOrDecimal256 `yaml:"balance"`
}

// Foreign configures the staking side.
type Foreign struct {
	Domain          thor.DomainID `yaml:"domain"`
	Staker          thor.Address  `yaml:"staker"`
	Owner           thor.Address  `yaml:"owner"`
	Slasher         thor.Address  `yaml:"slasher,omitempty"`
	RequestGasLimit uint64        `yaml:"requestGasLimit,omitempty"`
	CoolDown        time.Duration `yaml:"coolDown,omitempty"`
	EnableLocking   bool          `yaml:"enableLocking,omitempty"`
}

// Home configures the mirror side.
type Home struct {
	Domain thor.DomainID `yaml:"domain"`
	Mirror thor.Address  `yaml:"mirror"`
}

// Relay configures the message bridge between the two.
type Relay struct {
	MaxGasPerTx uint64 `yaml:"maxGasPerTx,omitempty"`
	// ValidatorKey is a hex private key signing every relayed message.
	ValidatorKey string `yaml:"validatorKey,omitempty"`
}

type Genesis struct {
	Name     string       `yaml:"name"`
	Token    thor.Address `yaml:"token"`
	Foreign  Foreign      `yaml:"foreign"`
	Home     Home         `yaml:"home"`
	Relay    Relay        `yaml:"relay"`
	Accounts []Account    `yaml:"accounts,omitempty"`
}

// Load decodes and validates a yaml genesis.
func Load(r io.Reader) (*Genesis, error) {
	var gen Genesis
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// LoadFile loads the genesis at path.
func LoadFile(path string) (*Genesis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Validate checks the genesis for a consistent deployment.
func (g *Genesis) Validate() error {
	switch {
	case g.Foreign.Domain == g.Home.Domain:
		return errors.New("foreign and home domains must differ")
	case g.Foreign.Staker.IsZero():
		return errors.New("foreign staker address must be set")
	case g.Home.Mirror.IsZero():
		return errors.New("home mirror address must be set")
	case g.Token.IsZero():
		return errors.New("token address must be set")
	case g.Foreign.Owner.IsZero():
		return errors.New("foreign owner must be set")
	}
	maxGas := g.MaxGasPerTx()
	if g.Foreign.RequestGasLimit > maxGas {
		return errors.Errorf("request gas limit %d exceeds relay max %d", g.Foreign.RequestGasLimit, maxGas)
	}
	if g.Foreign.CoolDown < 0 {
		return errors.New("cooldown must not be negative")
	}
	for _, acc := range g.Accounts {
		if acc.Balance == nil || (*big.Int)(acc.Balance).Sign() < 1 {
			return errors.Errorf("%v: balance must be a positive integer", acc.Address)
		}
	}
	return nil
}

// ID identifies the deployment.
func (g *Genesis) ID() (thor.Bytes32, error) {
	data, err := yaml.Marshal(g)
	if err != nil {
		return thor.Bytes32{}, err
	}
	return thor.Blake2b(data), nil
}

func (g *Genesis) MaxGasPerTx() uint64 {
	if g.Relay.MaxGasPerTx == 0 {
		return thor.DefaultMaxGasPerTx
	}
	return g.Relay.MaxGasPerTx
}

// StakerConfig returns the foreign mediator configuration.
// Stored values take precedence once the staker is initialized.
func (g *Genesis) StakerConfig() staker.Config {
	return staker.Config{
		Address:         g.Foreign.Staker,
		Domain:          g.Foreign.Domain,
		HomeDomain:      g.Home.Domain,
		Owner:           g.Foreign.Owner,
		Slasher:         g.Foreign.Slasher,
		Mediator:        g.Home.Mirror,
		RequestGasLimit: g.Foreign.RequestGasLimit,
		CoolDownPeriod:  g.Foreign.CoolDown,
		EnableLocking:   g.Foreign.EnableLocking,
	}
}

// MirrorConfig returns the home mirror configuration. validator is the
// address of the relay signing key, if any.
func (g *Genesis) MirrorConfig(validator *thor.Address) mirror.Config {
	return mirror.Config{
		Address:         g.Home.Mirror,
		ForeignDomain:   g.Foreign.Domain,
		ForeignMediator: g.Foreign.Staker,
		Validator:       validator,
	}
}

// Allocate mints the initial balances into a token that has none yet.
func (g *Genesis) Allocate(tk *token.Token) error {
	supply, err := tk.TotalSupply()
	if err != nil {
		return err
	}
	if supply.Sign() > 0 {
		return nil
	}
	for _, acc := range g.Accounts {
		if err := tk.Mint(acc.Address, (*big.Int)(acc.Balance)); err != nil {
			return errors.Wrapf(err, "allocate %v", acc.Address)
		}
	}
	logger.Info("genesis allocated", "accounts", len(g.Accounts))
	return nil
}
