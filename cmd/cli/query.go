package cli

import (
	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "query the amm rpc",
}

func init() {
	queryCmd.AddCommand(rpcVersionCmd)
	queryCmd.AddCommand(keysCmd)
	queryCmd.AddCommand(poolCmd)
	queryCmd.AddCommand(poolsCmd)
	queryCmd.AddCommand(accountCmd)
	queryCmd.AddCommand(marketCmd)
	queryCmd.AddCommand(configCmd)
	queryCmd.AddCommand(quoteCmd)
}

var (
	rpcVersionCmd = &cobra.Command{
		Use:   "version",
		Short: "query the software version of the node",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Version())
		},
	}

	keysCmd = &cobra.Command{
		Use:   "keys <market> <base-mint> <quote-mint>",
		Short: "derive every address of the pool trading the mints on the market",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Keys(argToPublicKey(args[0]), argToPublicKey(args[1]), argToPublicKey(args[2])))
		},
	}

	poolCmd = &cobra.Command{
		Use:   "pool <id>",
		Short: "query a pool record",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Pool(argToPublicKey(args[0])))
		},
	}

	poolsCmd = &cobra.Command{
		Use:   "pools",
		Short: "query every pool of the program",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Pools())
		},
	}

	accountCmd = &cobra.Command{
		Use:   "account <address>",
		Short: "query the raw account stored at an address",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Account(argToPublicKey(args[0])))
		},
	}

	marketCmd = &cobra.Command{
		Use:   "market <id>",
		Short: "query an order book market",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Market(argToPublicKey(args[0])))
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "query the configuration of the node",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Config())
		},
	}

	quoteCmd = &cobra.Command{
		Use:   "quote <instruction-json> [signer...]",
		Short: "dry run an instruction and print the receipt it would produce",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ins := new(lib.Instruction)
			if err := lib.UnmarshalJSON([]byte(args[0]), ins); err != nil {
				l.Fatal(err.Error())
			}
			var signers []crypto.PublicKey
			for _, arg := range args[1:] {
				signers = append(signers, argToPublicKey(arg))
			}
			writeToConsole(client.Quote(ins, signers...))
		},
	}
)
