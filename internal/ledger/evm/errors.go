package evm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"certflow/pkg/platform/sentinel"
)

// revertReason extracts the revert message carried by an RPC error.
// ok is false when err is not a revert.
func revertReason(err error) (reason string, ok bool) {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if raw, isString := dataErr.ErrorData().(string); isString {
			if data, decErr := hexutil.Decode(raw); decErr == nil {
				if msg, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return msg, true
				}
			}
		}
	}
	msg := err.Error()
	if i := strings.Index(msg, "execution reverted"); i >= 0 {
		reason := strings.TrimPrefix(msg[i+len("execution reverted"):], ":")
		return strings.TrimSpace(reason), true
	}
	return "", false
}

// classify maps a node error onto the backend sentinels. Context errors pass
// through so the gateway can report them as timeouts.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if reason, ok := revertReason(err); ok {
		if reason == "" {
			reason = "execution reverted"
		}
		return fmt.Errorf("%s: %w: %s", op, sentinel.ErrRejected, reason)
	}
	if errors.Is(err, bind.ErrNoCode) {
		return fmt.Errorf("%s: registry contract not deployed: %w", op, sentinel.ErrUnavailable)
	}
	return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
}

// classifyLookup treats a reverted read as a missing record, which is how
// ERC-721 registries answer queries for unknown tokens.
func classifyLookup(op string, err error) error {
	err = classify(op, err)
	if errors.Is(err, sentinel.ErrRejected) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return err
}
