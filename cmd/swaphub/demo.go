package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/portalswap/embed-swap-hub/adapters"
	"github.com/portalswap/embed-swap-hub/channel"
	"github.com/portalswap/embed-swap-hub/debounce"
	"github.com/portalswap/embed-swap-hub/host"
	"github.com/portalswap/embed-swap-hub/models"
	"github.com/portalswap/embed-swap-hub/session"
	"github.com/portalswap/embed-swap-hub/widget"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run one end-to-end swap session in-process with stub adapters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo()
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo() error {
	hostEp, widgetEp := channel.Pair("https://dapp.example", "https://widget.example")

	done := make(chan string, 1)
	cfg := models.WidgetConfig{
		TargetAssetIsNative: true,
		DefaultAmount:       decimal.NewFromInt(100),
	}
	sess, err := session.New(cfg, "https://dapp.example", hostEp, noopSurface{}, session.Callbacks{
		OnComplete: func(tx string) { done <- "completed: " + tx },
		OnError:    func(msg string) { done <- "error: " + msg },
		OnCancel:   func() { done <- "cancelled" },
	})
	if err != nil {
		return err
	}

	machine := host.New(sess, demoAdapters(), common.HexToAddress("0xC586BeF4a0992C495Cf22e1aeEE4E446CECDee0E"))
	machine.Start()

	ctrl := widget.New(sess.Token(), widgetEp, debounce.DefaultWindow)
	if err := ctrl.Start(); err != nil {
		return err
	}

	// Scripted user: type an amount, connect, then push submit through the
	// approve/swap steps until the session finishes.
	time.Sleep(300 * time.Millisecond)
	ctrl.SetAmount(decimal.NewFromInt(50))
	time.Sleep(300 * time.Millisecond)

	for i := 0; i < 4; i++ {
		if err := ctrl.Submit(); err != nil {
			return err
		}
		time.Sleep(300 * time.Millisecond)
		vs := ctrl.Snapshot()
		log.Info().
			Str("button", vs.ButtonLabel).
			Bool("connected", vs.Connected).
			Str("target", vs.TargetDisplay).
			Msg("widget state")
		if vs.Succeeded {
			break
		}
	}

	select {
	case outcome := <-done:
		log.Info().Str("outcome", outcome).Msg("demo session finished")
		ctrl.Close()
		return nil
	case <-time.After(5 * time.Second):
		ctrl.Close()
		return fmt.Errorf("demo session did not finish")
	}
}

type noopSurface struct{}

func (noopSurface) Show()    {}
func (noopSurface) Hide()    {}
func (noopSurface) Discard() {}

func demoAdapters() adapters.Set {
	return adapters.Set{
		Wallet:   &demoWallet{},
		Exchange: &demoExchange{rate: decimal.NewFromFloat(0.00041)},
		Metadata: &demoMetadata{},
		Oracle:   demoOracle{},
	}
}

type demoWallet struct{}

func (w *demoWallet) Connect(context.Context) (common.Address, error) {
	return common.HexToAddress("0xABCD000000000000000000000000000000001234"), nil
}

func (w *demoWallet) SignAndSubmit(_ context.Context, tx adapters.SwapTransaction) (adapters.TransactionHandle, error) {
	return adapters.TransactionHandle{Hash: "0xfeedbeef"}, nil
}

func (w *demoWallet) OnAccountChanged(func(common.Address)) {}
func (w *demoWallet) OnNetworkChanged(func(string))         {}

type demoExchange struct {
	rate decimal.Decimal
}

func (e *demoExchange) Quote(_ context.Context, source, target models.Asset, amount decimal.Decimal) (adapters.Route, error) {
	return adapters.Route{
		ExpectedOutput: amount.Mul(e.rate),
		PriceImpact:    decimal.NewFromFloat(0.002),
		FeeEstimate:    decimal.NewFromFloat(1.25),
	}, nil
}

func (e *demoExchange) BuildSwap(_ context.Context, source, target models.Asset, amount decimal.Decimal, route adapters.Route) (adapters.SwapTransaction, error) {
	return adapters.SwapTransaction{To: target.Address, Value: decimal.Zero}, nil
}

type demoMetadata struct {
	approved bool
}

func (m *demoMetadata) Resolve(_ context.Context, addr common.Address) (string, uint8, error) {
	return "TOKEN", 18, nil
}

func (m *demoMetadata) Allowance(context.Context, common.Address, common.Address, models.Asset) (decimal.Decimal, error) {
	if m.approved {
		return decimal.NewFromInt(1_000_000), nil
	}
	return decimal.Zero, nil
}

func (m *demoMetadata) Approve(_ context.Context, _, _ common.Address, _ models.Asset, _ decimal.Decimal) (adapters.TransactionHandle, error) {
	m.approved = true
	return adapters.TransactionHandle{Hash: "0xa11ce"}, nil
}

func (m *demoMetadata) BalanceOf(context.Context, common.Address, models.Asset) (decimal.Decimal, error) {
	return decimal.NewFromInt(10_000), nil
}

type demoOracle struct{}

func (demoOracle) USDPrice(context.Context, models.Asset) (decimal.Decimal, error) {
	return decimal.NewFromInt(600), nil
}
