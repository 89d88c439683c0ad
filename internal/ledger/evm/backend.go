// Package evm talks to the deployed user and certificate registry contracts.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"certflow/internal/identity"
	"certflow/internal/ledger"
	"certflow/internal/platform/config"
	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
	platformsync "certflow/pkg/platform/sync"
)

// Client is the node surface the backend needs. *ethclient.Client satisfies it.
type Client interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

type Config struct {
	ChainID                    int64
	UserRegistryAddress        string
	CertificateRegistryAddress string
	ReceiptTimeout             time.Duration
	CallTimeout                time.Duration
}

// ConfigFrom extracts backend settings from the ledger config group.
func ConfigFrom(cfg config.LedgerConfig) Config {
	return Config{
		ChainID:                    cfg.ChainID,
		UserRegistryAddress:        cfg.UserRegistryAddress,
		CertificateRegistryAddress: cfg.CertificateRegistryAddress,
		ReceiptTimeout:             cfg.ReceiptTimeout,
		CallTimeout:                cfg.CallTimeout,
	}
}

type Backend struct {
	client  Client
	cfg     Config
	chainID *big.Int

	contracts Contracts
	users     *bind.BoundContract
	certs     *bind.BoundContract

	// nonces are assigned from the pending pool, so sends from one
	// account must not interleave.
	senders *platformsync.ShardedMutex
}

// Dial connects to rpcURL and checks the node serves the configured chain.
func Dial(ctx context.Context, rpcURL string, cfg Config) (*Backend, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger node: %w", err)
	}
	b, err := New(client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	if chainID.Cmp(b.chainID) != 0 {
		client.Close()
		return nil, fmt.Errorf("node serves chain %s, configured %s", chainID, b.chainID)
	}
	return b, nil
}

// New binds the registries on an existing client.
func New(client Client, cfg Config) (*Backend, error) {
	if !common.IsHexAddress(cfg.UserRegistryAddress) || !common.IsHexAddress(cfg.CertificateRegistryAddress) {
		return nil, fmt.Errorf("registry addresses must be hex addresses")
	}
	if cfg.ChainID <= 0 {
		return nil, fmt.Errorf("chain id must be positive")
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = 2 * time.Minute
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	contracts, err := LoadContracts()
	if err != nil {
		return nil, err
	}
	return &Backend{
		client:    client,
		cfg:       cfg,
		chainID:   big.NewInt(cfg.ChainID),
		contracts: contracts,
		users: bind.NewBoundContract(common.HexToAddress(cfg.UserRegistryAddress),
			contracts.UserRegistry, client, client, client),
		certs: bind.NewBoundContract(common.HexToAddress(cfg.CertificateRegistryAddress),
			contracts.CertificateRegistry, client, client, client),
		senders: platformsync.NewShardedMutex(),
	}, nil
}

func (b *Backend) call(ctx context.Context, contract *bind.BoundContract, method string, args ...any) ([]any, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.CallTimeout)
	defer cancel()
	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// transact sends one transaction and waits for its receipt. A receipt that
// does not arrive within the receipt timeout leaves the write unconfirmed
// with its hash reported.
func (b *Backend) transact(ctx context.Context, signer identity.Signer, contract *bind.BoundContract, method string, args ...any) (*types.Receipt, ledger.Receipt, error) {
	release := b.senders.Hold(signer.Identity().String())
	tx, err := contract.Transact(transactOpts(ctx, signer, b.chainID), method, args...)
	release()
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidInput) {
			return nil, ledger.Receipt{}, fmt.Errorf("%s: %w", method, err)
		}
		return nil, ledger.Receipt{}, classify(method, err)
	}

	out := ledger.Receipt{TxHash: tx.Hash().Hex()}
	waitCtx, cancel := context.WithTimeout(ctx, b.cfg.ReceiptTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, b.client, tx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, out, fmt.Errorf("%s: %w: no receipt for %s after %s",
				method, sentinel.ErrUnconfirmed, out.TxHash, b.cfg.ReceiptTimeout)
		}
		if ctx.Err() != nil {
			return nil, out, fmt.Errorf("%s: %w: %w", method, sentinel.ErrUnconfirmed, ctx.Err())
		}
		return nil, out, fmt.Errorf("%s: %w: %w", method, sentinel.ErrUnconfirmed, err)
	}
	out.BlockNumber = receipt.BlockNumber.Uint64()
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, out, fmt.Errorf("%s: %w: transaction %s reverted", method, sentinel.ErrRejected, out.TxHash)
	}
	return receipt, out, nil
}

func (b *Backend) GetUser(ctx context.Context, id domain.Identity) (ledger.UserRecord, error) {
	registered, err := b.IsUserRegistered(ctx, id)
	if err != nil {
		return ledger.UserRecord{}, err
	}
	if !registered {
		return ledger.UserRecord{Identity: id}, nil
	}
	out, err := b.call(ctx, b.users, "getUser", id.Address())
	if err != nil {
		return ledger.UserRecord{}, classify("getUser", err)
	}
	role, ref, err := decodeUser(out)
	if err != nil {
		return ledger.UserRecord{}, err
	}
	return ledger.UserRecord{
		Identity:    id,
		Role:        domain.RoleFromLedger(role),
		Registered:  true,
		MetadataRef: ref,
	}, nil
}

func (b *Backend) IsUserRegistered(ctx context.Context, id domain.Identity) (bool, error) {
	out, err := b.call(ctx, b.users, "isUserRegistered", id.Address())
	if err != nil {
		return false, classify("isUserRegistered", err)
	}
	return single[bool]("isUserRegistered", out)
}

func (b *Backend) GetAllUsers(ctx context.Context) ([]domain.Identity, error) {
	out, err := b.call(ctx, b.users, "getAllUsers")
	if err != nil {
		return nil, classify("getAllUsers", err)
	}
	addrs, err := single[[]common.Address]("getAllUsers", out)
	if err != nil {
		return nil, err
	}
	ids := make([]domain.Identity, 0, len(addrs))
	for _, a := range addrs {
		ids = append(ids, domain.IdentityFromAddress(a))
	}
	return ids, nil
}

func (b *Backend) RegisterUser(ctx context.Context, signer identity.Signer, role domain.Role, metadataRef string) (ledger.Receipt, error) {
	if err := ledger.CheckRegistration(false, role, metadataRef); err != nil {
		return ledger.Receipt{}, err
	}
	_, r, err := b.transact(ctx, signer, b.users, "registerUser", role.String(), metadataRef)
	return r, err
}

func (b *Backend) Owner(ctx context.Context) (domain.Identity, error) {
	out, err := b.call(ctx, b.certs, "owner")
	if err != nil {
		return "", classify("owner", err)
	}
	addr, err := single[common.Address]("owner", out)
	if err != nil {
		return "", err
	}
	return domain.IdentityFromAddress(addr), nil
}

func (b *Backend) IsAuthorizedInstitute(ctx context.Context, institute domain.Identity) (bool, error) {
	out, err := b.call(ctx, b.certs, "authorizedInstitutes", institute.Address())
	if err != nil {
		return false, classify("authorizedInstitutes", err)
	}
	return single[bool]("authorizedInstitutes", out)
}

func (b *Backend) AuthorizeInstitute(ctx context.Context, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error) {
	_, r, err := b.transact(ctx, signer, b.certs, "authorizeInstitute", institute.Address())
	return r, err
}

func (b *Backend) RevokeInstitute(ctx context.Context, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error) {
	_, r, err := b.transact(ctx, signer, b.certs, "revokeInstitute", institute.Address())
	return r, err
}

func (b *Backend) RequestCounter(ctx context.Context) (uint64, error) {
	out, err := b.call(ctx, b.certs, "requestCounter")
	if err != nil {
		return 0, classify("requestCounter", err)
	}
	n, err := single[*big.Int]("requestCounter", out)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func (b *Backend) CertificateRequest(ctx context.Context, id domain.RequestID) (ledger.CertificateRequest, error) {
	out, err := b.call(ctx, b.certs, "certificateRequests", new(big.Int).SetUint64(uint64(id)))
	if err != nil {
		return ledger.CertificateRequest{}, classifyLookup("certificateRequests", err)
	}
	return decodeRequest(id, out)
}

func (b *Backend) RequestCertificate(ctx context.Context, signer identity.Signer, in ledger.RequestInput) (ledger.Receipt, error) {
	receipt, r, err := b.transact(ctx, signer, b.certs, "requestCertificate",
		in.Institute.Address(), in.Name, in.Message, in.StudentMetadataRef)
	if err != nil {
		return r, err
	}
	if id, ok := b.eventID(receipt, eventCertificateRequested); ok {
		r.RequestID = domain.RequestID(id)
	}
	return r, nil
}

func (b *Backend) ApproveCertificateRequest(ctx context.Context, signer identity.Signer, in ledger.ApprovalInput) (ledger.Receipt, error) {
	receipt, r, err := b.transact(ctx, signer, b.certs, "approveCertificateRequest",
		new(big.Int).SetUint64(uint64(in.RequestID)), in.CertificateType, in.MetadataRef, in.InstitutionName)
	if err != nil {
		return r, err
	}
	r.RequestID = in.RequestID
	if id, ok := b.eventID(receipt, eventCertificateIssued); ok {
		r.CertificateID = domain.CertificateID(id)
	}
	return r, nil
}

func (b *Backend) CancelCertificateRequest(ctx context.Context, signer identity.Signer, id domain.RequestID) (ledger.Receipt, error) {
	_, r, err := b.transact(ctx, signer, b.certs, "cancelCertificateRequest", new(big.Int).SetUint64(uint64(id)))
	if err != nil {
		return r, err
	}
	r.RequestID = id
	return r, nil
}

func (b *Backend) StudentCertificates(ctx context.Context, holder domain.Identity) ([]domain.CertificateID, error) {
	out, err := b.call(ctx, b.certs, "getStudentCertificates", holder.Address())
	if err != nil {
		return nil, classify("getStudentCertificates", err)
	}
	raw, err := single[[]*big.Int]("getStudentCertificates", out)
	if err != nil {
		return nil, err
	}
	ids := make([]domain.CertificateID, 0, len(raw))
	for _, n := range raw {
		ids = append(ids, domain.CertificateID(n.Uint64()))
	}
	return ids, nil
}

func (b *Backend) CertificateDetails(ctx context.Context, id domain.CertificateID) (ledger.CertificateDetails, error) {
	out, err := b.call(ctx, b.certs, "getCertificateDetails", new(big.Int).SetUint64(uint64(id)))
	if err != nil {
		return ledger.CertificateDetails{}, classifyLookup("getCertificateDetails", err)
	}
	return decodeDetails(id, out)
}

func (b *Backend) TokenURI(ctx context.Context, id domain.CertificateID) (string, error) {
	out, err := b.call(ctx, b.certs, "tokenURI", new(big.Int).SetUint64(uint64(id)))
	if err != nil {
		return "", classifyLookup("tokenURI", err)
	}
	return single[string]("tokenURI", out)
}

func (b *Backend) Health(ctx context.Context) error {
	if _, err := b.client.ChainID(ctx); err != nil {
		return classify("chainId", err)
	}
	return nil
}

var _ ledger.Backend = (*Backend)(nil)
