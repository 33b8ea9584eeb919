package services

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/fluxapay/backend/internal/auth"
	"github.com/fluxapay/backend/internal/config"
	"github.com/fluxapay/backend/internal/ton"
	"go.uber.org/zap"
)

func newAuthService(payloads *fakePayloadStore, audit *fakeAuditStore) *AuthService {
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiration: time.Hour,
		TONNetwork:    "testnet",
	}
	return NewAuthService(payloads, audit, cfg, zap.NewNop())
}

// signs nonce the way a TON Connect wallet would
func walletSign(privKey ed25519.PrivateKey, addrHash []byte, workchain int32, domain, nonce string) ton.Proof {
	proof := ton.Proof{
		Timestamp: time.Now().Unix(),
		Domain:    ton.ProofDomain{LengthBytes: len(domain), Value: domain},
		Payload:   nonce,
	}

	message := []byte(ton.TonProofPrefix)
	wcBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(wcBytes, uint32(workchain))
	message = append(message, wcBytes...)
	message = append(message, addrHash...)
	domainLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(domainLen, uint32(proof.Domain.LengthBytes))
	message = append(message, domainLen...)
	message = append(message, []byte(proof.Domain.Value)...)
	tsBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(tsBytes, uint64(proof.Timestamp))
	message = append(message, tsBytes...)
	message = append(message, []byte(proof.Payload)...)

	msgHash := sha256.Sum256(message)
	sigMsg := []byte{0xff, 0xff}
	sigMsg = append(sigMsg, []byte(ton.TonConnectPrefix)...)
	sigMsg = append(sigMsg, msgHash[:]...)
	finalHash := sha256.Sum256(sigMsg)

	proof.Signature = hex.EncodeToString(ed25519.Sign(privKey, finalHash[:]))
	return proof
}

func TestVerifyProofMintsToken(t *testing.T) {
	payloads := newFakePayloadStore()
	audit := &fakeAuditStore{}
	svc := newAuthService(payloads, audit)
	ctx := context.Background()

	nonce, err := svc.GeneratePayload(ctx)
	if err != nil {
		t.Fatalf("GeneratePayload: %v", err)
	}

	pubKey, privKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	addrHash := make([]byte, 32)
	for i := range addrHash {
		addrHash[i] = byte(i)
	}
	address := "0:" + hex.EncodeToString(addrHash)

	token, err := svc.VerifyProof(ctx, VerifyProofRequest{
		Address:   address,
		Network:   "testnet",
		PublicKey: hex.EncodeToString(pubKey),
		Proof:     walletSign(privKey, addrHash, 0, "pay.example.com", nonce),
	})
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}

	claims, err := auth.ParseJWT("test-secret", token)
	if err != nil {
		t.Fatalf("minted token does not parse: %v", err)
	}
	if claims.Address != address {
		t.Errorf("token address = %s, want %s", claims.Address, address)
	}
}

func TestVerifyProofBurnsNonce(t *testing.T) {
	payloads := newFakePayloadStore()
	svc := newAuthService(payloads, &fakeAuditStore{})
	ctx := context.Background()

	nonce, err := svc.GeneratePayload(ctx)
	if err != nil {
		t.Fatalf("GeneratePayload: %v", err)
	}

	pubKey, privKey, _ := ed25519.GenerateKey(nil)
	addrHash := make([]byte, 32)
	address := "0:" + hex.EncodeToString(addrHash)
	req := VerifyProofRequest{
		Address:   address,
		Network:   "testnet",
		PublicKey: hex.EncodeToString(pubKey),
		Proof:     walletSign(privKey, addrHash, 0, "pay.example.com", nonce),
	}

	if _, err := svc.VerifyProof(ctx, req); err != nil {
		t.Fatalf("first VerifyProof: %v", err)
	}
	if _, err := svc.VerifyProof(ctx, req); !errors.Is(err, ErrProofPayloadInvalid) {
		t.Fatalf("replayed proof: got %v, want ErrProofPayloadInvalid", err)
	}
}

func TestVerifyProofUnknownNonce(t *testing.T) {
	svc := newAuthService(newFakePayloadStore(), &fakeAuditStore{})

	_, err := svc.VerifyProof(context.Background(), VerifyProofRequest{
		Address: "0:" + hex.EncodeToString(make([]byte, 32)),
		Proof:   ton.Proof{Payload: "never-issued"},
	})
	if !errors.Is(err, ErrProofPayloadInvalid) {
		t.Fatalf("got %v, want ErrProofPayloadInvalid", err)
	}
}

func TestVerifyProofBadAddress(t *testing.T) {
	payloads := newFakePayloadStore()
	svc := newAuthService(payloads, &fakeAuditStore{})
	ctx := context.Background()

	nonce, _ := svc.GeneratePayload(ctx)
	_, privKey, _ := ed25519.GenerateKey(nil)

	_, err := svc.VerifyProof(ctx, VerifyProofRequest{
		Address: "not-an-address",
		Proof:   walletSign(privKey, make([]byte, 32), 0, "pay.example.com", nonce),
	})
	if !errors.Is(err, ErrProofInvalid) {
		t.Fatalf("got %v, want ErrProofInvalid", err)
	}
}

func TestVerifyProofNetworkMismatch(t *testing.T) {
	payloads := newFakePayloadStore()
	svc := newAuthService(payloads, &fakeAuditStore{})
	ctx := context.Background()

	nonce, _ := svc.GeneratePayload(ctx)
	pubKey, privKey, _ := ed25519.GenerateKey(nil)
	addrHash := make([]byte, 32)

	_, err := svc.VerifyProof(ctx, VerifyProofRequest{
		Address:   "0:" + hex.EncodeToString(addrHash),
		Network:   "mainnet",
		PublicKey: hex.EncodeToString(pubKey),
		Proof:     walletSign(privKey, addrHash, 0, "pay.example.com", nonce),
	})
	if !errors.Is(err, ErrProofInvalid) {
		t.Fatalf("got %v, want ErrProofInvalid", err)
	}
}

func TestVerifyProofWrongSigner(t *testing.T) {
	payloads := newFakePayloadStore()
	svc := newAuthService(payloads, &fakeAuditStore{})
	ctx := context.Background()

	nonce, _ := svc.GeneratePayload(ctx)
	otherPub, _, _ := ed25519.GenerateKey(nil)
	_, privKey, _ := ed25519.GenerateKey(nil)
	addrHash := make([]byte, 32)

	_, err := svc.VerifyProof(ctx, VerifyProofRequest{
		Address:   "0:" + hex.EncodeToString(addrHash),
		Network:   "testnet",
		PublicKey: hex.EncodeToString(otherPub),
		Proof:     walletSign(privKey, addrHash, 0, "pay.example.com", nonce),
	})
	if !errors.Is(err, ErrProofInvalid) {
		t.Fatalf("got %v, want ErrProofInvalid", err)
	}
}
