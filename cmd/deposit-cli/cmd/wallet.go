package cmd

import (
	"context"
	"fmt"

	"deposit-core/internal/model"
	"deposit-core/internal/service/registry"

	"github.com/spf13/cobra"
)

var (
	walletUserID    uint64
	walletAddress   string
	walletNetworkID uint64
	walletLabel     string
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage monitored wallets",
}

var walletRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Put an address under monitoring",
	Long: `Registers a wallet address. The engine starts watching it at the
next snapshot refresh.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		w := &model.Wallet{
			UserID:              walletUserID,
			Address:             walletAddress,
			BlockchainNetworkID: walletNetworkID,
			Label:               walletLabel,
			IsActive:            true,
		}
		if err := registry.NewAdmin(db).RegisterWallet(context.Background(), w); err != nil {
			return fmt.Errorf("register wallet: %w", err)
		}

		fmt.Printf("Wallet registered: id=%d address=%s network=%d\n",
			w.ID, w.Address, w.BlockchainNetworkID)
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		wallets, err := registry.NewAdmin(db).ListWallets(context.Background(), walletUserID)
		if err != nil {
			return err
		}

		for _, w := range wallets {
			network := "?"
			if w.BlockchainNetwork != nil {
				network = w.BlockchainNetwork.Name
			}
			fmt.Printf("%d\t%s\tuser=%d\tnetwork=%s\tactive=%v\n",
				w.ID, w.Address, w.UserID, network, w.IsActive)
		}
		fmt.Printf("%d wallet(s)\n", len(wallets))
		return nil
	},
}

func init() {
	walletRegisterCmd.Flags().Uint64Var(&walletUserID, "user", 0, "owning user id (required)")
	walletRegisterCmd.Flags().StringVar(&walletAddress, "address", "", "deposit address (required)")
	walletRegisterCmd.Flags().Uint64Var(&walletNetworkID, "network", 0, "blockchain network id (required)")
	walletRegisterCmd.Flags().StringVar(&walletLabel, "label", "", "optional label")
	walletRegisterCmd.MarkFlagRequired("user")
	walletRegisterCmd.MarkFlagRequired("address")
	walletRegisterCmd.MarkFlagRequired("network")

	walletListCmd.Flags().Uint64Var(&walletUserID, "user", 0, "filter by user id")

	walletCmd.AddCommand(walletRegisterCmd)
	walletCmd.AddCommand(walletListCmd)
	rootCmd.AddCommand(walletCmd)
}
