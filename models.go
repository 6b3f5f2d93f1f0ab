package claudesession

import "github.com/wagiedev/claude-session-go/internal/models"

// Re-export model types from internal/models.

// Model holds metadata for a single Claude model.
type Model = models.Model

// ModelFamily groups models of the same class.
type ModelFamily = models.Family

// Model families.
const (
	ModelFamilyOpus   = models.FamilyOpus
	ModelFamilySonnet = models.FamilySonnet
	ModelFamilyHaiku  = models.FamilyHaiku
)

// Models returns every known model, newest first.
func Models() []Model {
	return models.All()
}

// ModelByID looks up a model by id, alias or dated id. It returns nil when
// no model matches.
func ModelByID(id string) *Model {
	return models.ByID(id)
}

// NormalizeModel resolves a model alias to its full id. Unknown names are
// returned unchanged.
func NormalizeModel(name string) string {
	return models.Normalize(name)
}
