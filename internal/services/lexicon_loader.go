package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yoockh/callassist/internal/lexicon"
	pgrepo "github.com/yoockh/callassist/internal/repositories/postgres"
	"github.com/yoockh/callassist/internal/storage"
	"github.com/yoockh/callassist/internal/utils"
)

const (
	LexiconBuiltin  = "builtin"
	LexiconAsset    = "asset"
	LexiconPostgres = "postgres"

	LexiconObject = "lexicon.json"
)

// LoadLexicon resolves the lexical tables once at startup. A missing asset or
// an empty snapshot table falls back to the built-in tables; anything that
// exists but does not validate is an error.
func LoadLexicon(ctx context.Context, source string, assets storage.Fetcher, snapshots pgrepo.LexiconRepository) (*lexicon.Lexicon, error) {
	const op = "LoadLexicon"

	switch source {
	case "", LexiconBuiltin:
		return lexicon.Default(), nil

	case LexiconAsset:
		if assets == nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, "lexicon source asset needs ASSET_DIR or ASSET_BUCKET", nil)
		}
		body, err := assets.Fetch(ctx, LexiconObject)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return lexicon.Default(), nil
		}
		if err != nil {
			return nil, utils.E(utils.CodeUnavailable, op, "failed to fetch lexicon asset", err)
		}
		lex, err := lexicon.Parse(body)
		if err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, "invalid lexicon asset", err)
		}
		return lex, nil

	case LexiconPostgres:
		if snapshots == nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, "lexicon source postgres needs POSTGRES_URI", nil)
		}
		snap, err := snapshots.Latest(ctx)
		if errors.Is(err, utils.ErrNotFound) {
			return lexicon.Default(), nil
		}
		if err != nil {
			return nil, utils.E(utils.CodeUnavailable, op, "failed to read lexicon snapshot", err)
		}
		lex, err := lexicon.Parse(snap.Body)
		if err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("invalid lexicon snapshot %q", snap.Version), err)
		}
		if snap.Version != "" {
			lex.Version = snap.Version
		}
		return lex, nil
	}
	return nil, utils.E(utils.CodeInvalidArgument, op, "unknown lexicon source "+source, nil)
}
