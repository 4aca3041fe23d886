package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/app"
	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x/bridge"
	"github.com/iov-one/htlc/x/wrapped"
	"github.com/urfave/cli"
)

var (
	fromFlag = cli.StringFlag{
		Name:  "from",
		Usage: "name of the signing key, created on first use",
	}
	amountFlag = cli.StringFlag{
		Name:  "amount",
		Usage: "base 10 amount",
		Value: "0",
	}
	idFlag = cli.StringFlag{
		Name:  "id",
		Usage: "hex encoded transfer id",
	}
)

var initCommand = cli.Command{
	Name:  "init",
	Usage: "initialize the chain from a genesis file",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "genesis",
			Usage: "path of the genesis file, overrides the configuration",
		},
	},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		path := n.config.Genesis
		if ctx.IsSet("genesis") {
			path = ctx.String("genesis")
		}
		if path == "" {
			return errors.Wrap(errors.ErrInput, "genesis file required")
		}
		gen, err := app.LoadGenesis(path)
		if err != nil {
			return err
		}
		if err := n.app.InitChain(gen); err != nil {
			return err
		}
		return printf(ctx, "chain %s initialized\n", gen.ChainID)
	}),
}

var addressCommand = cli.Command{
	Name:  "address",
	Usage: "show the address of a key",
	Flags: []cli.Flag{fromFlag},
	Action: func(ctx *cli.Context) error {
		config, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		key, err := loadOrCreateKey(config.KeysDir(), ctx.String("from"))
		if err != nil {
			return err
		}
		return printf(ctx, "%s\n", key.PublicKey().Address())
	},
}

var secretCommand = cli.Command{
	Name:  "secret",
	Usage: "generate a random pre-image and its hash lock",
	Action: func(ctx *cli.Context) error {
		preimage, hashLock, err := crypto.NewPreimage()
		if err != nil {
			return err
		}
		return printJSON(ctx, map[string]htlc.Bytes32{
			"preimage":  preimage,
			"hash_lock": hashLock,
		})
	},
}

var fundCommand = cli.Command{
	Name:  "fund",
	Usage: "issue native value, signed by the minter",
	Flags: []cli.Flag{fromFlag, amountFlag, cli.StringFlag{Name: "to", Usage: "receiving address or key name"}},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		to, err := n.address(ctx.String("to"))
		if err != nil {
			return err
		}
		amount, err := amountArg(ctx, "amount")
		if err != nil {
			return err
		}
		return n.deliver(ctx, ctx.String("from"), &wrapped.IssueMsg{Destination: to, Amount: amount})
	}),
}

var depositCommand = cli.Command{
	Name:  "deposit",
	Usage: "convert native value into tokens",
	Flags: []cli.Flag{fromFlag, amountFlag},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		amount, err := amountArg(ctx, "amount")
		if err != nil {
			return err
		}
		return n.deliver(ctx, ctx.String("from"), &wrapped.DepositMsg{Amount: amount})
	}),
}

var approveCommand = cli.Command{
	Name:  "approve",
	Usage: "allow the bridge to pull tokens",
	Flags: []cli.Flag{
		fromFlag, amountFlag,
		cli.StringFlag{Name: "spender", Usage: "spender address, the bridge by default"},
	},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		spender := bridge.BridgeAddress
		if s := ctx.String("spender"); s != "" {
			var err error
			if spender, err = n.address(s); err != nil {
				return err
			}
		}
		amount, err := amountArg(ctx, "amount")
		if err != nil {
			return err
		}
		return n.deliver(ctx, ctx.String("from"), &wrapped.ApproveMsg{Spender: spender, Amount: amount})
	}),
}

var transferCommand = cli.Command{
	Name:  "transfer",
	Usage: "send tokens to another account",
	Flags: []cli.Flag{fromFlag, amountFlag, cli.StringFlag{Name: "to", Usage: "receiving address or key name"}},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		to, err := n.address(ctx.String("to"))
		if err != nil {
			return err
		}
		amount, err := amountArg(ctx, "amount")
		if err != nil {
			return err
		}
		return n.deliver(ctx, ctx.String("from"), &wrapped.TransferMsg{Destination: to, Amount: amount})
	}),
}

var initializeCommand = cli.Command{
	Name:  "initialize",
	Usage: "set the bridge ledger and owner",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "owner", Usage: "owner address or key name"},
	},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		owner, err := n.address(ctx.String("owner"))
		if err != nil {
			return err
		}
		return n.deliver(ctx, "", &bridge.InitializeMsg{Ledger: wrapped.LedgerAddress, Owner: owner})
	}),
}

var setCounterpartyCommand = cli.Command{
	Name:  "set-counterparty",
	Usage: "register the identity allowed to withdraw, signed by the owner",
	Flags: []cli.Flag{fromFlag, cli.StringFlag{Name: "counterparty", Usage: "address or key name"}},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		cp, err := n.address(ctx.String("counterparty"))
		if err != nil {
			return err
		}
		return n.deliver(ctx, ctx.String("from"), &bridge.SetCounterpartyMsg{Counterparty: cp})
	}),
}

var transferOwnershipCommand = cli.Command{
	Name:  "transfer-ownership",
	Usage: "hand the owner role over, signed by the owner",
	Flags: []cli.Flag{fromFlag, cli.StringFlag{Name: "owner", Usage: "address or key name"}},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		owner, err := n.address(ctx.String("owner"))
		if err != nil {
			return err
		}
		return n.deliver(ctx, ctx.String("from"), &bridge.TransferOwnershipMsg{Owner: owner})
	}),
}

var initiateCommand = cli.Command{
	Name:  "initiate",
	Usage: "lock value under a hash lock",
	Flags: []cli.Flag{
		fromFlag,
		cli.StringFlag{Name: "native", Value: "0", Usage: "native value attached"},
		cli.StringFlag{Name: "fungible", Value: "0", Usage: "tokens pulled using the allowance"},
		cli.StringFlag{Name: "recipient", Usage: "hex encoded recipient on the other chain"},
		cli.StringFlag{Name: "hashlock", Usage: "hex encoded hash lock"},
		cli.Int64Flag{Name: "delay", Usage: "number of blocks the transfer can be completed in"},
	},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		native, err := amountArg(ctx, "native")
		if err != nil {
			return err
		}
		fungible, err := amountArg(ctx, "fungible")
		if err != nil {
			return err
		}
		recipient, err := htlc.ParseBytes32(ctx.String("recipient"))
		if err != nil {
			return errors.Wrap(err, "recipient")
		}
		hashLock, err := htlc.ParseBytes32(ctx.String("hashlock"))
		if err != nil {
			return errors.Wrap(err, "hash lock")
		}
		res, _, err := n.submit(ctx, ctx.String("from"), &bridge.InitiateMsg{
			Native:    native,
			Fungible:  fungible,
			Recipient: recipient,
			HashLock:  hashLock,
			Delay:     ctx.Int64("delay"),
		})
		if err != nil {
			return err
		}
		return printf(ctx, "%s\n", htlc.Bytes32(res.Data))
	}),
}

var completeCommand = cli.Command{
	Name:  "complete",
	Usage: "reveal the pre-image of a transfer",
	Flags: []cli.Flag{idFlag, cli.StringFlag{Name: "preimage", Usage: "hex encoded pre-image"}},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		id, err := htlc.ParseBytes32(ctx.String("id"))
		if err != nil {
			return errors.Wrap(err, "id")
		}
		preimage, err := htlc.ParseBytes32(ctx.String("preimage"))
		if err != nil {
			return errors.Wrap(err, "pre-image")
		}
		return n.deliver(ctx, "", &bridge.CompleteMsg{TransferID: id, Preimage: preimage})
	}),
}

var refundCommand = cli.Command{
	Name:  "refund",
	Usage: "return an expired transfer to its originator",
	Flags: []cli.Flag{idFlag},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		id, err := htlc.ParseBytes32(ctx.String("id"))
		if err != nil {
			return errors.Wrap(err, "id")
		}
		return n.deliver(ctx, "", &bridge.RefundMsg{TransferID: id})
	}),
}

var withdrawCommand = cli.Command{
	Name:  "withdraw",
	Usage: "release value attributed to an originator, signed by the counterparty",
	Flags: []cli.Flag{fromFlag, amountFlag, cli.StringFlag{Name: "originator", Usage: "address or key name"}},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		originator, err := n.address(ctx.String("originator"))
		if err != nil {
			return err
		}
		amount, err := amountArg(ctx, "amount")
		if err != nil {
			return err
		}
		return n.deliver(ctx, ctx.String("from"), &bridge.WithdrawMsg{Originator: originator, Amount: amount})
	}),
}

var balanceCommand = cli.Command{
	Name:  "balance",
	Usage: "show the native, token and locked balances of an account",
	Flags: []cli.Flag{cli.StringFlag{Name: "address", Usage: "address or key name"}},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		addr, err := n.address(ctx.String("address"))
		if err != nil {
			return err
		}
		var acc wrapped.Account
		if _, err := n.queryOne("/wallets", addr, &acc); err != nil {
			return err
		}
		var locked bridge.Balance
		if _, err := n.queryOne("/balances", addr, &locked); err != nil {
			return err
		}
		return printJSON(ctx, map[string]string{
			"address": addr.String(),
			"native":  formatBytes(acc.Native),
			"token":   formatBytes(acc.Token),
			"locked":  formatBytes(locked.Amount),
		})
	}),
}

var showCommand = cli.Command{
	Name:  "show",
	Usage: "show a transfer",
	Flags: []cli.Flag{idFlag},
	Action: withNode(func(ctx *cli.Context, n *node) error {
		id, err := htlc.ParseBytes32(ctx.String("id"))
		if err != nil {
			return errors.Wrap(err, "id")
		}
		var t bridge.Transfer
		found, err := n.queryOne("/transfers", id, &t)
		if err != nil {
			return err
		}
		if !found {
			return errors.Wrapf(errors.ErrNotFound, "transfer %s", id)
		}
		return printJSON(ctx, t)
	}),
}

// withNode opens the node for the duration of the action.
func withNode(action func(*cli.Context, *node) error) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		n, err := openNode(ctx)
		if err != nil {
			return err
		}
		defer n.Close()
		return action(ctx, n)
	}
}

// deliver submits the message and prints the height it was executed at.
func (n *node) deliver(ctx *cli.Context, from string, msg htlc.Msg) error {
	_, height, err := n.submit(ctx, from, msg)
	if err != nil {
		return err
	}
	return printf(ctx, "%s committed at height %d\n", msg.Path(), height)
}

// address accepts an address in any supported encoding or the name of a
// stored key.
func (n *node) address(s string) (htlc.Address, error) {
	if s == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "address")
	}
	if addr, err := htlc.ParseAddress(s); err == nil {
		return addr, nil
	}
	if isValidKeyName(s) {
		if _, err := os.Stat(filepath.Join(n.config.KeysDir(), s+".key")); err == nil {
			key, err := loadOrCreateKey(n.config.KeysDir(), s)
			if err != nil {
				return nil, err
			}
			return key.PublicKey().Address(), nil
		}
	}
	return nil, errors.Wrapf(errors.ErrInput, "neither an address nor a key: %q", s)
}

func amountArg(ctx *cli.Context, name string) ([]byte, error) {
	v, err := htlc.ParseAmount(ctx.String(name))
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return htlc.AmountBytes(v), nil
}

func formatBytes(raw []byte) string {
	v, err := htlc.AmountFromBytes(raw)
	if err != nil {
		return "invalid"
	}
	return htlc.FormatAmount(v)
}

func printf(ctx *cli.Context, format string, args ...interface{}) error {
	_, err := fmt.Fprintf(ctx.App.Writer, format, args...)
	return err
}

func printJSON(ctx *cli.Context, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	return printf(ctx, "%s\n", raw)
}
