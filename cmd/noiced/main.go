// Command noiced runs a single-node Noice ledger daemon: it hosts the
// system, token, and Noice programs and serves the Ledger gRPC service.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"noice.so/noice/noice"
	"noice.so/noice/rpc"
	"noice.so/noice/runtime"
	"noice.so/noice/storage"
	"noice.so/noice/storage/localfs"
	"noice.so/noice/token"
	"noice.so/noice/workspace"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("noiced", flag.ExitOnError)
	listen := fs.String("listen", workspace.DefaultCluster, "listen address")
	archiveBackend := fs.String("archive", "memory", "record archive backend: memory or localfs")
	archiveDir := fs.String("archive-dir", "", "record archive directory (localfs backend)")
	fund := fs.String("fund", "", "base58 address to airdrop to at startup")
	fundLamports := fs.Uint64("fund-lamports", 10_000_000_000, "lamports for the startup airdrop")
	devLog := fs.Bool("dev-log", false, "human-readable log output")

	_ = fs.Parse(args)

	log, err := newLogger(*devLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	archive, err := openArchive(*archiveBackend, *archiveDir)
	if err != nil {
		log.Error("archive setup failed", zap.Error(err))
		return 2
	}

	ledger, err := runtime.NewLedger(runtime.Options{})
	if err != nil {
		log.Error("ledger genesis failed", zap.Error(err))
		return 2
	}
	ledger.Register(token.ProgramID, token.Processor{})
	ledger.Register(noice.ProgramID, noice.Processor{})

	if *fund != "" {
		addr, err := solana.PublicKeyFromBase58(*fund)
		if err != nil {
			log.Error("invalid fund address", zap.String("address", *fund), zap.Error(err))
			return 2
		}
		rec, err := ledger.Airdrop(addr, *fundLamports)
		if err != nil {
			log.Error("startup airdrop failed", zap.Error(err))
			return 2
		}
		log.Info("startup airdrop", zap.Stringer("address", addr), zap.String("signature", rec.Signature))
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Error("listen failed", zap.String("addr", *listen), zap.Error(err))
		return 1
	}
	defer lis.Close()

	s := grpc.NewServer()
	rpc.RegisterLedgerServer(s, &rpc.Server{Ledger: ledger, Archive: archive, Log: log})

	log.Info("noiced listening",
		zap.String("addr", lis.Addr().String()),
		zap.String("archive", *archiveBackend),
		zap.Stringer("noiceProgram", noice.ProgramID),
	)
	if err := s.Serve(lis); err != nil {
		log.Error("serve failed", zap.Error(err))
		return 1
	}
	return 0
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openArchive(backend, dir string) (storage.Archive, error) {
	switch backend {
	case "memory":
		return storage.NewMemory(), nil
	case "localfs":
		if dir == "" {
			return nil, fmt.Errorf("localfs archive requires -archive-dir")
		}
		return localfs.New(dir)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", backend)
	}
}
