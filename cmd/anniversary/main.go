// Package main checks anniversary eligibility for an account and claims the
// points with a local key.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"dex-info-search/internal/achievement"
	"dex-info-search/internal/config"
	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage/memory"
)

func main() {
	logger := log.New(os.Stdout, "[anniversary] ", log.LstdFlags|log.Lshortfile)

	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Fatalf("Failed to load .env: %v", err)
	}

	fs := flag.NewFlagSet("anniversary", flag.ExitOnError)
	claim := fs.Bool("claim", false, "Send the claim transaction when eligible")
	timeout := fs.Duration("timeout", 2*time.Minute, "Overall timeout")
	account := fs.String("account", "", "Account to check (default: signer of DEXINFO_PRIVATE_KEY)")
	rpcEndpoint := fs.String("rpc-endpoint", "", "EVM JSON-RPC endpoint")
	contractAddr := fs.String("contract", "", "Anniversary achievement contract address")
	fs.Parse(os.Args[1:])

	cfg := config.Default()
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		logger.Fatalf("Invalid environment: %v", err)
	}
	if *rpcEndpoint != "" {
		cfg.Anniversary.RPCEndpoint = *rpcEndpoint
	}
	if *contractAddr != "" {
		cfg.Anniversary.Contract = *contractAddr
	}
	if !cfg.AnniversaryEnabled() {
		logger.Fatal("--rpc-endpoint and --contract are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	contract, err := achievement.DialContract(ctx, cfg.Anniversary.RPCEndpoint, cfg.Anniversary.Contract,
		cfg.Anniversary.ChainID, cfg.Anniversary.PrivateKey)
	if err != nil {
		logger.Fatalf("Failed to dial contract: %v", err)
	}
	defer contract.Close()

	acct := *account
	if acct == "" {
		acct = contract.Signer()
	}
	if acct == "" {
		logger.Fatal("--account or DEXINFO_PRIVATE_KEY is required")
	}
	if _, err := domain.NormalizeAddress(acct); err != nil {
		logger.Fatalf("Invalid account %q: %v", acct, err)
	}

	prompt := achievement.NewPrompt(achievement.Options{
		Contract: contract,
		Marks:    memory.NewPromptStore(),
		Logger:   logger,
	})

	state, err := prompt.SetAccount(ctx, acct, cfg.Anniversary.ChainID)
	if err != nil {
		logger.Fatalf("Eligibility check failed: %v", err)
	}
	logger.Printf("Account %s can claim: %v", state.Account, state.CanClaim)

	if !*claim || !state.CanClaim {
		return
	}

	outcome, err := prompt.Claim(ctx)
	if err != nil {
		var claimErr *achievement.ClaimError
		if errors.As(err, &claimErr) {
			logger.Fatalf("Failed to claim: %s", claimErr.Error())
		}
		logger.Fatalf("Claim error: %v", err)
	}
	if outcome.Notice == nil {
		logger.Fatal("Claim transaction reverted")
	}
	logger.Printf("%s tx %s, see %s", outcome.Notice.Title, outcome.Notice.TxHash, outcome.NavigateTo)
}
