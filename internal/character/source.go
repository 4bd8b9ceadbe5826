// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package character

import "context"

// Source is the contract of the remote character catalogue.
//
// Implementations must honour ctx cancellation and report failures as
// [apperr.AppError] values whenever a user-facing message is available.
type Source interface {
	// List returns one page of characters matching params.
	List(ctx context.Context, params ListParams) (*Page, error)

	// Get returns the full record for id.
	Get(ctx context.Context, id int) (*Character, error)
}
