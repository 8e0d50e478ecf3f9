package cli

import (
	"github.com/canopy-network/amm/fsm"
	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/canopy-network/amm/token"
	"github.com/spf13/cobra"
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "submit instructions to the node",
}

var (
	sim                               bool
	openTime                          uint64
	marketId, poolMarket, base, quote string

	secondMarket, secondBase, secondQuote string // the second pool of a route
)

func init() {
	txCmd.PersistentFlags().BoolVar(&sim, "simulate", false, "quote the instruction and print the receipt it would produce without applying it")
	for _, c := range []*cobra.Command{txPreInitCmd, txInitCmd, txDepositCmd, txWithdrawCmd, txSwapInCmd, txSwapOutCmd, txSetStatusCmd, txRouteInCmd, txRouteOutCmd} {
		c.Flags().StringVar(&poolMarket, "market", "", "market the pool trades on")
		c.Flags().StringVar(&base, "base-mint", "", "base mint of the pool")
		c.Flags().StringVar(&quote, "quote-mint", "", "quote mint of the pool")
	}
	for _, c := range []*cobra.Command{txRouteInCmd, txRouteOutCmd} {
		c.Flags().StringVar(&secondMarket, "second-market", "", "market of the route's second pool")
		c.Flags().StringVar(&secondBase, "second-base-mint", "", "base mint of the route's second pool")
		c.Flags().StringVar(&secondQuote, "second-quote-mint", "", "quote mint of the route's second pool")
	}
	txInitCmd.Flags().Uint64Var(&openTime, "open-time", 0, "unix seconds before which swaps are refused")
	txCreateMarketCmd.Flags().StringVar(&marketId, "market-id", "", "custom market id, by default the node picks one")
	txCmd.AddCommand(txCreateMintCmd)
	txCmd.AddCommand(txCreateAccountCmd)
	txCmd.AddCommand(txMintToCmd)
	txCmd.AddCommand(txTransferCmd)
	txCmd.AddCommand(txCreateMarketCmd)
	txCmd.AddCommand(txPreInitCmd)
	txCmd.AddCommand(txInitCmd)
	txCmd.AddCommand(txDepositCmd)
	txCmd.AddCommand(txWithdrawCmd)
	txCmd.AddCommand(txSwapInCmd)
	txCmd.AddCommand(txSwapOutCmd)
	txCmd.AddCommand(txSetStatusCmd)
	txCmd.AddCommand(txRouteInCmd)
	txCmd.AddCommand(txRouteOutCmd)
}

var (
	txCreateMintCmd = &cobra.Command{
		Use:   "create-mint <mint> <authority> <decimals>",
		Short: "create a token mint",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			authority := argToPublicKey(args[1])
			submit(token.NewInitializeMintInstruction(argToPublicKey(args[0]), authority, uint8(argToAmount(args[2]))), authority)
		},
	}

	txCreateAccountCmd = &cobra.Command{
		Use:   "create-account <account> <mint> <owner>",
		Short: "create a token account",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			submit(token.NewInitializeAccountInstruction(argToPublicKey(args[0]), argToPublicKey(args[1]), argToPublicKey(args[2])))
		},
	}

	txMintToCmd = &cobra.Command{
		Use:   "mint-to <mint> <destination> <authority> <amount>",
		Short: "mint tokens to an account",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			authority := argToPublicKey(args[2])
			submit(token.NewMintToInstruction(argToPublicKey(args[0]), argToPublicKey(args[1]), authority, argToAmount(args[3])), authority)
		},
	}

	txTransferCmd = &cobra.Command{
		Use:   "transfer <source> <destination> <owner> <amount>",
		Short: "transfer tokens between accounts of one mint",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			owner := argToPublicKey(args[2])
			submit(token.NewTransferInstruction(argToPublicKey(args[0]), argToPublicKey(args[1]), owner, argToAmount(args[3])), owner)
		},
	}

	txCreateMarketCmd = &cobra.Command{
		Use:   "create-market <base-mint> <quote-mint> <base-lot-size> <quote-lot-size>",
		Short: "register an order book market for a mint pair",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			var id crypto.PublicKey
			if marketId != "" {
				id = argToPublicKey(marketId)
			}
			writeToConsole(client.CreateMarket(id, argToPublicKey(args[0]), argToPublicKey(args[1]), argToAmount(args[2]), argToAmount(args[3])))
		},
	}

	txPreInitCmd = &cobra.Command{
		Use:   "pre-init <payer>",
		Short: "allocate the accounts of a pool without funding it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			keys, payer := poolKeys(), argToPublicKey(args[0])
			submit(fsm.NewPoolInstruction(keys, &fsm.PreInitialize{Nonce: keys.Nonce}, payer), payer)
		},
	}

	txInitCmd = &cobra.Command{
		Use:   "init <owner> <base-account> <quote-account> <lp-account> <base-amount> <quote-amount>",
		Short: "fund a pool with its first liquidity and open it",
		Args:  cobra.ExactArgs(6),
		Run: func(cmd *cobra.Command, args []string) {
			keys, owner := poolKeys(), argToPublicKey(args[0])
			submit(fsm.NewPoolInstruction(keys, &fsm.Initialize{
				Nonce:     keys.Nonce,
				OpenTime:  openTime,
				InitBase:  argToAmount(args[4]),
				InitQuote: argToAmount(args[5]),
			}, owner, argToPublicKey(args[1]), argToPublicKey(args[2]), argToPublicKey(args[3])), owner)
		},
	}

	txDepositCmd = &cobra.Command{
		Use:   "deposit <owner> <base-account> <quote-account> <lp-account> <max-base> <max-quote> <base-side>",
		Short: "add liquidity in the current pool ratio; base-side 0 fixes the base amount, 1 fixes the quote amount",
		Args:  cobra.ExactArgs(7),
		Run: func(cmd *cobra.Command, args []string) {
			owner := argToPublicKey(args[0])
			submit(fsm.NewPoolInstruction(poolKeys(), &fsm.Deposit{
				MaxBase:  argToAmount(args[4]),
				MaxQuote: argToAmount(args[5]),
				BaseSide: argToAmount(args[6]),
			}, owner, argToPublicKey(args[1]), argToPublicKey(args[2]), argToPublicKey(args[3])), owner)
		},
	}

	txWithdrawCmd = &cobra.Command{
		Use:   "withdraw <owner> <base-account> <quote-account> <lp-account> <lp-amount>",
		Short: "burn lp tokens for a share of the reserves",
		Args:  cobra.ExactArgs(5),
		Run: func(cmd *cobra.Command, args []string) {
			owner := argToPublicKey(args[0])
			submit(fsm.NewPoolInstruction(poolKeys(), &fsm.Withdraw{LpAmount: argToAmount(args[4])},
				owner, argToPublicKey(args[1]), argToPublicKey(args[2]), argToPublicKey(args[3])), owner)
		},
	}

	txSwapInCmd = &cobra.Command{
		Use:   "swap-in <owner> <source> <destination> <amount-in> <minimum-out>",
		Short: "swap an exact input amount",
		Args:  cobra.ExactArgs(5),
		Run: func(cmd *cobra.Command, args []string) {
			owner := argToPublicKey(args[0])
			submit(fsm.NewPoolInstruction(poolKeys(), &fsm.SwapBaseIn{AmountIn: argToAmount(args[3]), MinimumAmountOut: argToAmount(args[4])},
				owner, argToPublicKey(args[1]), argToPublicKey(args[2])), owner)
		},
	}

	txSwapOutCmd = &cobra.Command{
		Use:   "swap-out <owner> <source> <destination> <maximum-in> <amount-out>",
		Short: "swap for an exact output amount",
		Args:  cobra.ExactArgs(5),
		Run: func(cmd *cobra.Command, args []string) {
			owner := argToPublicKey(args[0])
			submit(fsm.NewPoolInstruction(poolKeys(), &fsm.SwapBaseOut{MaximumAmountIn: argToAmount(args[3]), AmountOut: argToAmount(args[4])},
				owner, argToPublicKey(args[1]), argToPublicKey(args[2])), owner)
		},
	}

	txRouteInCmd = &cobra.Command{
		Use:   "route-in <owner> <source> <intermediate> <destination> <amount-in> <minimum-out>",
		Short: "swap an exact input through the pool and then the second pool",
		Args:  cobra.ExactArgs(6),
		Run: func(cmd *cobra.Command, args []string) {
			owner := argToPublicKey(args[0])
			p := &fsm.RouteSwapBaseIn{AmountIn: argToAmount(args[4]), MinimumAmountOut: argToAmount(args[5])}
			submit(fsm.NewRouteInstruction(poolKeys(), secondPoolKeys(), p,
				owner, argToPublicKey(args[1]), argToPublicKey(args[2]), argToPublicKey(args[3])), owner)
		},
	}

	txRouteOutCmd = &cobra.Command{
		Use:   "route-out <owner> <source> <intermediate> <destination> <maximum-in> <amount-out>",
		Short: "swap through the pool and then the second pool for an exact output",
		Args:  cobra.ExactArgs(6),
		Run: func(cmd *cobra.Command, args []string) {
			owner := argToPublicKey(args[0])
			p := &fsm.RouteSwapBaseOut{MaximumAmountIn: argToAmount(args[4]), AmountOut: argToAmount(args[5])}
			submit(fsm.NewRouteInstruction(poolKeys(), secondPoolKeys(), p,
				owner, argToPublicKey(args[1]), argToPublicKey(args[2]), argToPublicKey(args[3])), owner)
		},
	}

	txSetStatusCmd = &cobra.Command{
		Use:   "set-status <owner> <status>",
		Short: "change the status of a pool: 1 initialized, 2 disabled, 3 withdraw only",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			owner := argToPublicKey(args[0])
			submit(fsm.NewPoolInstruction(poolKeys(), &fsm.SetStatus{Status: argToAmount(args[1])}, owner), owner)
		},
	}
)

// poolKeys() derives the pool named by the --market, --base-mint and --quote-mint flags
func poolKeys() *fsm.PoolKeys { return keysOf(poolMarket, base, quote) }

// secondPoolKeys() derives the second pool of a route from the --second-* flags
func secondPoolKeys() *fsm.PoolKeys { return keysOf(secondMarket, secondBase, secondQuote) }

func keysOf(market, baseMint, quoteMint string) *fsm.PoolKeys {
	keys, err := client.Keys(argToPublicKey(market), argToPublicKey(baseMint), argToPublicKey(quoteMint))
	if err != nil {
		l.Fatal(err.Error())
	}
	return keys
}

// submit() applies the instruction, or only quotes it when simulating
func submit(ins *lib.Instruction, signers ...crypto.PublicKey) {
	if sim {
		writeToConsole(client.Quote(ins, signers...))
		return
	}
	writeToConsole(client.Transaction(ins, signers...))
}
