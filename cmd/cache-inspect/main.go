// cache-inspect is the Go-native continuation of
// Voskan-arena-cache/cmd/arena-cache-inspect: it polls a running
// cachesrvd's /debug/cache/snapshot endpoint and renders it as a table or
// JSON, and can issue a single live GET/SET against the server's wire
// protocol for spot-checking, optionally obfuscating the key it prints.
//
// © 2025 cachecore authors. MIT License.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/jedib0t/go-pretty/v6/table"

	goclient "github.com/lattice-kv/cachecore/examples/go-client"
	"github.com/lattice-kv/cachecore/internal/deltaenc"
	"github.com/lattice-kv/cachecore/internal/dispatch"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type SnapshotCmd struct {
	Target   string        `default:"http://127.0.0.1:9100" help:"Base URL of the debug HTTP surface."`
	JSON     bool          `help:"Print raw JSON instead of a table."`
	Watch    bool          `help:"Poll continuously instead of a single fetch."`
	Interval time.Duration `default:"2s" help:"Polling interval when --watch is set."`
}

type ProbeCmd struct {
	Addr          string `required:"" help:"host:port of the live server's wire protocol listener (not the debug HTTP port)."`
	Key           string `required:"" help:"Key to GET, or to SET when --value is given."`
	Value         string `help:"If set, issues a SET instead of a GET."`
	ObfuscateKeys bool   `help:"Delta-encode the key before printing it, so the key itself never appears in diagnostic output."`
}

var cli struct {
	Snapshot SnapshotCmd `cmd:"" default:"1" help:"Fetch and print the server's metrics snapshot."`
	Probe    ProbeCmd    `cmd:"" help:"Issue a single GET/SET against a live server."`
}

func main() {
	ctx := kong.Parse(&cli)
	var err error
	switch ctx.Command() {
	case "snapshot":
		err = runSnapshot(cli.Snapshot)
	case "probe":
		err = runProbe(cli.Probe)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "cache-inspect:", err)
		os.Exit(1)
	}
}

func runSnapshot(cmd SnapshotCmd) error {
	if cmd.Watch {
		ticker := time.NewTicker(cmd.Interval)
		defer ticker.Stop()
		for {
			if err := dumpOnce(cmd); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
			<-ticker.C
		}
	}
	return dumpOnce(cmd)
}

func dumpOnce(cmd SnapshotCmd) error {
	snap, err := fetchSnapshot(cmd.Target)
	if err != nil {
		return err
	}
	if cmd.JSON {
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(snap)
	}
	printTable(snap)
	return nil
}

func fetchSnapshot(base string) (dispatch.Snapshot, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, base+"/debug/cache/snapshot", nil)
	if err != nil {
		return dispatch.Snapshot{}, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return dispatch.Snapshot{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return dispatch.Snapshot{}, fmt.Errorf("unexpected status %s", res.Status)
	}
	var snap dispatch.Snapshot
	if err := json.NewDecoder(res.Body).Decode(&snap); err != nil {
		return dispatch.Snapshot{}, err
	}
	return snap, nil
}

func printTable(snap dispatch.Snapshot) {
	fmt.Printf("requests=%s errors=%s active_connections=%s\n",
		humanize.Comma(int64(snap.NumRequests)),
		humanize.Comma(int64(snap.NumErrors)),
		humanize.Comma(int64(snap.NumActiveConns)),
	)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"shard", "entries", "table size", "resizes", "hits", "misses", "sets", "deletes"})
	for _, s := range snap.Shards {
		t.AppendRow(table.Row{
			s.Index,
			humanize.Comma(int64(s.Entries)),
			humanize.Comma(int64(s.TableSize)),
			s.Resizes,
			humanize.Comma(int64(s.Hits)),
			humanize.Comma(int64(s.Misses)),
			humanize.Comma(int64(s.Sets)),
			humanize.Comma(int64(s.Deletes)),
		})
	}
	t.Render()
}

func runProbe(cmd ProbeCmd) error {
	c, err := goclient.Dial(cmd.Addr, 2*time.Second)
	if err != nil {
		return err
	}
	defer c.Close()

	displayKey := cmd.Key
	if cmd.ObfuscateKeys {
		if enc, err := deltaenc.Encode(cmd.Key); err == nil {
			displayKey = enc
		}
	}

	if cmd.Value != "" {
		if err := c.Set(cmd.Key, cmd.Value); err != nil {
			return err
		}
		fmt.Printf("SET %s -> OK\n", displayKey)
		return nil
	}

	v, ok, err := c.Get(cmd.Key)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Printf("GET %s -> (nil)\n", displayKey)
		return nil
	}
	fmt.Printf("GET %s -> %q\n", displayKey, v)
	return nil
}
