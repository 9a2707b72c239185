package cmd

import (
	"context"
	"fmt"

	"deposit-core/internal/service/deposit"

	"github.com/spf13/cobra"
)

var depositWalletID uint64

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Inspect recorded deposits",
}

var depositGetCmd = &cobra.Command{
	Use:   "get <tx-hash>",
	Short: "Show the deposit recorded under a transaction hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		d, err := deposit.NewStore(db).GetByTxHash(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("tx_hash:       %s\n", d.TxHash)
		fmt.Printf("status:        %s\n", d.Status)
		fmt.Printf("amount:        %s\n", d.Amount.String())
		fmt.Printf("confirmations: %d\n", d.Confirmations)
		if d.BlockNumber != nil {
			fmt.Printf("block:         %d\n", *d.BlockNumber)
		}
		if d.FromAddress != nil {
			fmt.Printf("from:          %s\n", *d.FromAddress)
		}
		return nil
	},
}

var depositListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a wallet's deposits, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		deposits, err := deposit.NewStore(db).ListByWallet(context.Background(), depositWalletID, 0, 100)
		if err != nil {
			return err
		}

		for _, d := range deposits {
			fmt.Printf("%s\t%s\t%s\tconf=%d\n", d.TxHash, d.Status, d.Amount.String(), d.Confirmations)
		}
		fmt.Printf("%d deposit(s)\n", len(deposits))
		return nil
	},
}

func init() {
	depositListCmd.Flags().Uint64Var(&depositWalletID, "wallet", 0, "wallet id (required)")
	depositListCmd.MarkFlagRequired("wallet")

	depositCmd.AddCommand(depositGetCmd)
	depositCmd.AddCommand(depositListCmd)
	rootCmd.AddCommand(depositCmd)
}
