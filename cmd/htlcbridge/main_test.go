package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x/bridge"
	"github.com/iov-one/htlc/x/wrapped"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runner struct {
	t   *testing.T
	dir string
}

func (r runner) exec(args ...string) (string, error) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	base := []string{appName, "--datadir", r.dir, "--debuglevel", "none"}
	err := app.Run(append(base, args...))
	return strings.TrimSpace(out.String()), err
}

// execAt runs the command at an explicit height.
func (r runner) execAt(height int64, args ...string) (string, error) {
	return r.exec(append([]string{"--height", fmt.Sprint(height)}, args...)...)
}

func (r runner) run(args ...string) string {
	r.t.Helper()
	out, err := r.exec(args...)
	require.NoError(r.t, err, "%v", args)
	return out
}

func TestBridgeLifecycle(t *testing.T) {
	r := runner{t: t, dir: t.TempDir()}

	minter := r.run("address", "--from", "minter")
	owner := r.run("address", "--from", "owner")
	counterparty := r.run("address", "--from", "counterparty")
	alice := r.run("address", "--from", "alice")
	// keys are stable
	assert.Equal(t, alice, r.run("address", "--from", "alice"))

	genesis := fmt.Sprintf(`{
		"chain_id": "bridge-test",
		"app_state": {
			"conf": {"wrapped": {"minter": %q}},
			"bridge": {"ledger": %q, "owner": %q, "counterparty": %q}
		}
	}`, minter, wrapped.LedgerAddress.String(), owner, counterparty)
	path := filepath.Join(r.dir, "genesis.json")
	require.NoError(t, os.WriteFile(path, []byte(genesis), 0600))

	_, err := r.exec("fund", "--from", "minter", "--to", "alice", "--amount", "1")
	require.Error(t, err, "chain not initialized yet")

	r.run("init", "--genesis", path)
	_, err = r.exec("init", "--genesis", path)
	require.Error(t, err, "init twice")

	r.run("fund", "--from", "minter", "--to", "alice", "--amount", "1000")
	_, err = r.exec("fund", "--from", "alice", "--to", "alice", "--amount", "1000")
	require.Error(t, err, "only the minter can fund")

	r.run("deposit", "--from", "alice", "--amount", "500")
	r.run("approve", "--from", "alice", "--amount", "200")

	var secret map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.run("secret")), &secret))
	recipient := strings.Repeat("AB", 32)

	id := r.run("initiate", "--from", "alice",
		"--native", "50", "--fungible", "100",
		"--recipient", recipient, "--hashlock", secret["hash_lock"],
		"--delay", "5")
	assert.Len(t, id, 64)

	var transfer map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(r.run("show", "--id", id)), &transfer))
	assert.Equal(t, "INITIALIZED", transfer["state"])
	assert.Equal(t, "150", transfer["amount"])

	_, err = r.exec("refund", "--id", id)
	require.True(t, bridge.ErrTimelockNotExpired.Is(err), "%+v", err)

	r.run("complete", "--id", id, "--preimage", secret["preimage"])

	_, err = r.exec("refund", "--id", id)
	require.True(t, bridge.ErrAlreadyFinalized.Is(err), "%+v", err)

	_, err = r.exec("withdraw", "--from", "alice", "--originator", "alice", "--amount", "150")
	require.Error(t, err, "only the counterparty withdraws")

	r.run("withdraw", "--from", "counterparty", "--originator", "alice", "--amount", "150")

	var balance map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.run("balance", "--address", "alice")), &balance))
	assert.Equal(t, map[string]string{
		"address": alice,
		"native":  "450",
		"token":   "550",
		"locked":  "0",
	}, balance)
}

func TestHeightOnlyMovesForward(t *testing.T) {
	r := runner{t: t, dir: t.TempDir()}

	minter := r.run("address", "--from", "minter")
	alice := r.run("address", "--from", "alice")
	genesis := fmt.Sprintf(`{
		"chain_id": "bridge-test",
		"app_state": {"conf": {"wrapped": {"minter": %q}}}
	}`, minter)
	path := filepath.Join(r.dir, "genesis.json")
	require.NoError(t, os.WriteFile(path, []byte(genesis), 0600))
	r.run("init", "--genesis", path)

	out := r.run("fund", "--from", "minter", "--to", alice, "--amount", "10")
	assert.Equal(t, "wrapped/issue committed at height 1", out)

	out, err := r.execAt(50, "fund", "--from", "minter", "--to", alice, "--amount", "10")
	require.NoError(t, err)
	assert.Equal(t, "wrapped/issue committed at height 50", out)

	for _, h := range []int64{50, 20} {
		_, err = r.execAt(h, "fund", "--from", "minter", "--to", alice, "--amount", "10")
		require.True(t, errors.ErrInput.Is(err), "height %d: %+v", h, err)
	}

	// without the flag the chain continues after the last height
	out = r.run("fund", "--from", "minter", "--to", alice, "--amount", "10")
	assert.Equal(t, "wrapped/issue committed at height 51", out)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	conf := filepath.Join(dir, "custom.conf")
	require.NoError(t, os.WriteFile(conf, []byte("datadir="+data+"\ndebuglevel=none\n"), 0600))

	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	require.NoError(t, app.Run([]string{appName, "--configfile", conf, "address", "--from", "k"}))

	_, err := os.Stat(filepath.Join(data, "keys", "k.key"))
	assert.NoError(t, err)

	err = newApp().Run([]string{appName, "--configfile", filepath.Join(dir, "missing.conf"), "address", "--from", "k"})
	assert.Error(t, err)
}
