// Command noice is the operator CLI for a Noice ledger: wallet keys,
// airdrops, balances, and the Noice program's instructions.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gagliardetto/solana-go"

	"noice.so/noice/client"
	"noice.so/noice/keys"
	"noice.so/noice/noice"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "airdrop":
		return cmdAirdrop(args[1:], out, errOut)
	case "balance":
		return cmdBalance(args[1:], out, errOut)
	case "initialize-user":
		return cmdInitializeUser(args[1:], out, errOut)
	case "tip":
		return cmdTip(args[1:], out, errOut)
	case "create-paywall":
		return cmdCreatePaywall(args[1:], out, errOut)
	case "unlock-paywall":
		return cmdUnlockPaywall(args[1:], out, errOut)
	case "tx":
		return cmdTx(args[1:], out, errOut)
	case "programs":
		return cmdPrograms(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "noice: Noice ledger client CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  noice key init [--path <file>]")
	fmt.Fprintln(w, "  noice key show [--path <file>]")
	fmt.Fprintln(w, "  noice airdrop [--to <base58>] --lamports <n>")
	fmt.Fprintln(w, "  noice balance [--addr <base58>]")
	fmt.Fprintln(w, "  noice initialize-user")
	fmt.Fprintln(w, "  noice tip --recipient <base58> --sender-token <base58> --recipient-token <base58> --mint <base58> --amount <n> [--action <text>]")
	fmt.Fprintln(w, "  noice create-paywall --content <id> --price <n> --mint <base58>")
	fmt.Fprintln(w, "  noice unlock-paywall --creator <base58> --content <id> --user-token <base58> --creator-token <base58> --mint <base58>")
	fmt.Fprintln(w, "  noice tx --sig <base58>")
	fmt.Fprintln(w, "  noice programs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - Cluster, wallet, and program registry come from Noice.yaml")
	fmt.Fprintln(w, "    (NOICE_WORKSPACE), overridable via NOICE_CLUSTER and NOICE_WALLET")
	fmt.Fprintln(w, "  - Wallet keypairs default to ~/.config/noice/id.json (0600)")
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "key: expected init or show")
		return 2
	}
	sub := args[0]
	fs := flag.NewFlagSet("key "+sub, flag.ExitOnError)
	path := fs.String("path", "", "keypair file (default ~/.config/noice/id.json)")
	_ = fs.Parse(args[1:])

	p := *path
	if p == "" {
		var err error
		p, err = keys.DefaultWalletPath()
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
	}

	switch sub {
	case "init":
		key, err := keys.Generate()
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		if err := keys.Save(p, key); err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		fmt.Fprintf(out, "wrote %s\npubkey: %s\n", p, key.PublicKey())
		return 0
	case "show":
		key, err := keys.Load(p)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		fmt.Fprintln(out, key.PublicKey())
		return 0
	default:
		fmt.Fprintf(errOut, "key: unknown subcommand %q\n", sub)
		return 2
	}
}

func cmdAirdrop(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("airdrop", flag.ExitOnError)
	to := fs.String("to", "", "recipient address (default: wallet)")
	lamports := fs.Uint64("lamports", 1_000_000_000, "lamports to airdrop")
	_ = fs.Parse(args)

	p, err := client.NewFromEnv()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer p.Close()

	addr := p.PublicKey()
	if *to != "" {
		addr, err = solana.PublicKeyFromBase58(*to)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
	}
	sig, err := p.RPC.RequestAirdrop(context.Background(), addr, *lamports)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintln(out, sig)
	return 0
}

func cmdBalance(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	addr := fs.String("addr", "", "address (default: wallet)")
	_ = fs.Parse(args)

	p, err := client.NewFromEnv()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer p.Close()

	key := p.PublicKey()
	if *addr != "" {
		key, err = solana.PublicKeyFromBase58(*addr)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
	}
	balance, err := p.RPC.Balance(context.Background(), key)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "%d\n", balance)
	return 0
}

func cmdInitializeUser(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("initialize-user", flag.ExitOnError)
	_ = fs.Parse(args)

	p, err := client.NewFromEnv()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer p.Close()

	prog, err := p.Noice()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	sig, _, err := prog.InitializeUser(context.Background())
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "Your transaction signature %s\n", sig)
	return 0
}

func cmdTip(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("tip", flag.ExitOnError)
	recipient := fs.String("recipient", "", "recipient wallet address")
	senderToken := fs.String("sender-token", "", "sender token account")
	recipientToken := fs.String("recipient-token", "", "recipient token account")
	mint := fs.String("mint", "", "token mint")
	amount := fs.Uint64("amount", 0, "token amount")
	action := fs.String("action", "tip", "action label recorded in the event")
	_ = fs.Parse(args)

	p, err := client.NewFromEnv()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer p.Close()

	prog, err := p.Noice()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	params := noice.TipParams{Amount: *amount, Action: *action}
	if params.Recipient, err = solana.PublicKeyFromBase58(*recipient); err != nil {
		fmt.Fprintln(errOut, "invalid --recipient:", err)
		return 2
	}
	if params.SenderToken, err = solana.PublicKeyFromBase58(*senderToken); err != nil {
		fmt.Fprintln(errOut, "invalid --sender-token:", err)
		return 2
	}
	if params.RecipientToken, err = solana.PublicKeyFromBase58(*recipientToken); err != nil {
		fmt.Fprintln(errOut, "invalid --recipient-token:", err)
		return 2
	}
	if params.TokenMint, err = solana.PublicKeyFromBase58(*mint); err != nil {
		fmt.Fprintln(errOut, "invalid --mint:", err)
		return 2
	}
	sig, _, err := prog.Tip(context.Background(), params)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintln(out, sig)
	return 0
}

func cmdCreatePaywall(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("create-paywall", flag.ExitOnError)
	content := fs.String("content", "", "content id")
	price := fs.Uint64("price", 0, "price in tokens")
	mint := fs.String("mint", "", "token mint")
	_ = fs.Parse(args)

	p, err := client.NewFromEnv()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer p.Close()

	prog, err := p.Noice()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	mintKey, err := solana.PublicKeyFromBase58(*mint)
	if err != nil {
		fmt.Fprintln(errOut, "invalid --mint:", err)
		return 2
	}
	sig, _, err := prog.CreatePaywall(context.Background(), *content, *price, mintKey)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintln(out, sig)
	return 0
}

func cmdUnlockPaywall(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("unlock-paywall", flag.ExitOnError)
	creator := fs.String("creator", "", "paywall creator address")
	content := fs.String("content", "", "content id")
	userToken := fs.String("user-token", "", "paying token account")
	creatorToken := fs.String("creator-token", "", "creator token account")
	mint := fs.String("mint", "", "token mint")
	_ = fs.Parse(args)

	p, err := client.NewFromEnv()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer p.Close()

	prog, err := p.Noice()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	params := noice.UnlockParams{ContentID: *content}
	if params.Creator, err = solana.PublicKeyFromBase58(*creator); err != nil {
		fmt.Fprintln(errOut, "invalid --creator:", err)
		return 2
	}
	if params.UserToken, err = solana.PublicKeyFromBase58(*userToken); err != nil {
		fmt.Fprintln(errOut, "invalid --user-token:", err)
		return 2
	}
	if params.CreatorToken, err = solana.PublicKeyFromBase58(*creatorToken); err != nil {
		fmt.Fprintln(errOut, "invalid --creator-token:", err)
		return 2
	}
	if params.TokenMint, err = solana.PublicKeyFromBase58(*mint); err != nil {
		fmt.Fprintln(errOut, "invalid --mint:", err)
		return 2
	}
	sig, _, err := prog.UnlockPaywall(context.Background(), params)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintln(out, sig)
	return 0
}

func cmdTx(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("tx", flag.ExitOnError)
	sigStr := fs.String("sig", "", "transaction signature")
	_ = fs.Parse(args)

	p, err := client.NewFromEnv()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer p.Close()

	sig, err := solana.SignatureFromBase58(*sigStr)
	if err != nil {
		fmt.Fprintln(errOut, "invalid --sig:", err)
		return 2
	}
	rec, err := p.RPC.Transaction(context.Background(), sig)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}

func cmdPrograms(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("programs", flag.ExitOnError)
	_ = fs.Parse(args)

	p, err := client.NewFromEnv()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer p.Close()

	for _, name := range p.Workspace.Programs() {
		id, _ := p.Workspace.Program(name)
		fmt.Fprintf(out, "%s\t%s\n", name, id)
	}
	return 0
}
