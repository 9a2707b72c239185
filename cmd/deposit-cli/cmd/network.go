package cmd

import (
	"context"
	"fmt"

	"deposit-core/internal/model"
	"deposit-core/internal/service/registry"

	"github.com/spf13/cobra"
)

var (
	networkName          string
	networkChainID       int64
	networkRpcURL        string
	networkWsURL         string
	networkConfirmations int
	networkBlockTime     int
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage blockchain networks",
}

var networkAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a blockchain network",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		n := &model.BlockchainNetwork{
			Name:                  networkName,
			ChainID:               networkChainID,
			RpcUrl:                networkRpcURL,
			WsUrl:                 networkWsURL,
			ConfirmationsRequired: networkConfirmations,
			BlockTime:             networkBlockTime,
			IsActive:              true,
		}
		if err := registry.NewAdmin(db).CreateNetwork(context.Background(), n); err != nil {
			return fmt.Errorf("create network: %w", err)
		}

		fmt.Printf("Network registered: id=%d name=%s chain_id=%d confirmations=%d\n",
			n.ID, n.Name, n.ChainID, n.ConfirmationsRequired)
		return nil
	},
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		networks, err := registry.NewAdmin(db).ListNetworks(context.Background())
		if err != nil {
			return err
		}

		for _, n := range networks {
			fmt.Printf("%d\t%s\tchain_id=%d\tconfirmations=%d\tactive=%v\n",
				n.ID, n.Name, n.ChainID, n.ConfirmationsRequired, n.IsActive)
		}
		fmt.Printf("%d network(s)\n", len(networks))
		return nil
	},
}

func init() {
	networkAddCmd.Flags().StringVar(&networkName, "name", "", "network name (required)")
	networkAddCmd.Flags().Int64Var(&networkChainID, "chain-id", 0, "EVM chain id (required)")
	networkAddCmd.Flags().StringVar(&networkRpcURL, "rpc-url", "", "HTTP RPC endpoint (required)")
	networkAddCmd.Flags().StringVar(&networkWsURL, "ws-url", "", "websocket endpoint (required)")
	networkAddCmd.Flags().IntVar(&networkConfirmations, "confirmations", 12, "required confirmation depth")
	networkAddCmd.Flags().IntVar(&networkBlockTime, "block-time", 12, "expected block time in seconds")
	networkAddCmd.MarkFlagRequired("name")
	networkAddCmd.MarkFlagRequired("chain-id")
	networkAddCmd.MarkFlagRequired("rpc-url")
	networkAddCmd.MarkFlagRequired("ws-url")

	networkCmd.AddCommand(networkAddCmd)
	networkCmd.AddCommand(networkListCmd)
	rootCmd.AddCommand(networkCmd)
}
