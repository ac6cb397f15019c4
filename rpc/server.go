package rpc

import (
	"context"
	"encoding/json"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"noice.so/noice/runtime"
	"noice.so/noice/storage"
)

// AccountInfo is the JSON account payload served by GetAccount.
type AccountInfo struct {
	Lamports   uint64           `json:"lamports"`
	Owner      solana.PublicKey `json:"owner"`
	Data       []byte           `json:"data"`
	Executable bool             `json:"executable"`
}

// AirdropRequest is the JSON payload of RequestAirdrop.
type AirdropRequest struct {
	Address  solana.PublicKey `json:"address"`
	Lamports uint64           `json:"lamports"`
}

// Server exposes a ledger over the Ledger gRPC service. Archive and Log
// are optional; when Archive is set every confirmed record is written
// to it.
type Server struct {
	UnimplementedLedgerServer
	Ledger  *runtime.Ledger
	Archive storage.Archive
	Log     *zap.Logger
}

func (s *Server) Submit(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	_ = ctx
	if s == nil || s.Ledger == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing ledger")
	}
	tx, err := runtime.DecodeTransaction(in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	rec, err := s.Ledger.Execute(tx)
	if err != nil {
		return nil, mapErr(err)
	}
	s.archive(rec)
	if s.Log != nil {
		s.Log.Info("transaction processed",
			zap.String("signature", rec.Signature),
			zap.Uint64("slot", rec.Slot),
			zap.Bool("failed", rec.Failed()),
		)
	}
	return wrapperspb.String(rec.Signature), nil
}

func (s *Server) GetTransaction(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Ledger == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing ledger")
	}
	sig, err := solana.SignatureFromBase58(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed signature")
	}
	rec, ok := s.Ledger.Record(sig)
	if !ok {
		return nil, status.Error(codes.NotFound, "transaction not found")
	}
	raw, err := rec.CanonicalBytes()
	if err != nil {
		return nil, status.Error(codes.Internal, "record encoding failed")
	}
	return wrapperspb.Bytes(raw), nil
}

func (s *Server) GetAccount(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Ledger == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing ledger")
	}
	key, err := solana.PublicKeyFromBase58(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed public key")
	}
	acct, ok := s.Ledger.Account(key)
	if !ok {
		return nil, status.Error(codes.NotFound, "account not found")
	}
	raw, err := json.Marshal(AccountInfo{
		Lamports:   acct.Lamports,
		Owner:      acct.Owner,
		Data:       acct.Data,
		Executable: acct.Executable,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "account encoding failed")
	}
	return wrapperspb.Bytes(raw), nil
}

func (s *Server) GetBalance(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	_ = ctx
	if s == nil || s.Ledger == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing ledger")
	}
	key, err := solana.PublicKeyFromBase58(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed public key")
	}
	return wrapperspb.UInt64(s.Ledger.Balance(key)), nil
}

func (s *Server) RequestAirdrop(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	_ = ctx
	if s == nil || s.Ledger == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing ledger")
	}
	var req AirdropRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed airdrop request")
	}
	if req.Address.IsZero() || req.Lamports == 0 {
		return nil, status.Error(codes.InvalidArgument, "airdrop requires an address and a lamport amount")
	}
	rec, err := s.Ledger.Airdrop(req.Address, req.Lamports)
	if err != nil {
		return nil, mapErr(err)
	}
	s.archive(rec)
	if s.Log != nil {
		s.Log.Info("airdrop processed",
			zap.Stringer("address", req.Address),
			zap.Uint64("lamports", req.Lamports),
			zap.String("signature", rec.Signature),
		)
	}
	return wrapperspb.String(rec.Signature), nil
}

func (s *Server) LatestBlockhash(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	_ = ctx
	if s == nil || s.Ledger == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing ledger")
	}
	return wrapperspb.String(s.Ledger.LatestBlockhash().String()), nil
}

func (s *Server) archive(rec *runtime.TransactionRecord) {
	if s.Archive == nil || rec == nil {
		return
	}
	raw, err := rec.CanonicalBytes()
	if err != nil {
		return
	}
	if _, err := s.Archive.Put(raw); err != nil && s.Log != nil {
		s.Log.Warn("record archival failed", zap.String("signature", rec.Signature), zap.Error(err))
	}
}
