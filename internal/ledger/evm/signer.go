package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"certflow/internal/identity"
	"certflow/pkg/platform/sentinel"
)

// transactOpts builds bind options whose signing step goes through s.
func transactOpts(ctx context.Context, s identity.Signer, chainID *big.Int) *bind.TransactOpts {
	from := s.Identity().Address()
	txSigner := types.LatestSignerForChainID(chainID)
	return &bind.TransactOpts{
		From:    from,
		Context: ctx,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if addr != from {
				return nil, bind.ErrNotAuthorized
			}
			hash := txSigner.Hash(tx)
			sig, err := s.SignDigest(hash[:])
			if errors.Is(err, identity.ErrCannotSign) {
				return nil, fmt.Errorf("%w: no key held for %s", sentinel.ErrInvalidInput, s.Identity())
			}
			if err != nil {
				return nil, err
			}
			return tx.WithSignature(txSigner, sig)
		},
	}
}
