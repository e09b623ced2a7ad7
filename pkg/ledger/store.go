package ledger

import "context"

// Store persists sealed blocks. PutBlock must be durable before it returns;
// the ledger only publishes a block after a successful put.
type Store interface {
	PutBlock(context.Context, Block) error

	// Blocks returns every stored block ordered by index.
	Blocks(context.Context) ([]Block, error)

	Close() error
}
