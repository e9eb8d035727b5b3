// Package compose builds learners and ensembles from declarative YAML
// specs. A spec names a strategy, its options, and its members by their
// registry names, so model assembly moves out of code:
//
//	ensemble: stack
//	options: {folds: 5, keep_original_features: true, seed: 7}
//	members:
//	  - {name: tree, options: {max_depth: 4}}
//	  - {name: knn,  options: {n_neighbors: 3}}
//	  - {name: majority}
//	stacker: {name: tree}
//
// Load reads a spec from a YAML file and layers COMBINEML__ environment
// overrides on top (COMBINEML__OPTIONS__FOLDS=10 replaces options.folds).
// Build turns a validated spec into a ready-to-fit learner through the
// learner registry and the ensemble constructors.
package compose

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/combineml/combineml/core/model"
	"github.com/combineml/combineml/ensemble"
	"github.com/combineml/combineml/learners"
	"github.com/combineml/combineml/options"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
)

// EnvPrefix marks the environment variables that override spec values.
const EnvPrefix = "COMBINEML__"

// Ensemble strategy names accepted in a spec. An empty strategy selects the
// single named member directly.
const (
	EnsembleVote  = "vote"
	EnsembleStack = "stack"
	EnsembleBest  = "best"
)

// LearnerSpec names one registry learner and its options.
type LearnerSpec struct {
	Name    string          `koanf:"name" validate:"required"`
	Options options.Options `koanf:"options"`
}

// Spec declares a learner or an ensemble of learners.
type Spec struct {
	Ensemble string          `koanf:"ensemble" validate:"omitempty,oneof=vote stack best"`
	Options  options.Options `koanf:"options"`
	Members  []LearnerSpec   `koanf:"members" validate:"min=1,dive"`
	Stacker  *LearnerSpec    `koanf:"stacker" validate:"omitempty,excluded_unless=Ensemble stack"`
}

var validate = validator.New()

// Validate checks a spec against its declared constraints and reports the
// first violation as a ValidationError.
func Validate(spec Spec) error {
	err := validate.Struct(spec)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if cmlErrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		param := strings.TrimPrefix(fe.Namespace(), "Spec.")
		return cmlErrors.NewValidationError(param, validationReason(fe), fe.Value())
	}
	return cmlErrors.Wrap(err, "compose: validate spec")
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("needs at least %s entries", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "excluded_unless":
		return "is only valid for the stack strategy"
	default:
		return fmt.Sprintf("violates the %q constraint", fe.Tag())
	}
}

// Load reads a spec from a YAML file, applies COMBINEML__ environment
// overrides, and validates the result.
func Load(path string) (Spec, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Spec{}, cmlErrors.Wrapf(err, "compose: load spec from %s", path)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return Spec{}, cmlErrors.Wrap(err, "compose: load environment overrides")
	}

	var spec Spec
	if err := k.Unmarshal("", &spec); err != nil {
		return Spec{}, cmlErrors.Wrapf(err, "compose: decode spec from %s", path)
	}

	if err := Validate(spec); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Build turns a spec into an unfitted learner. Members resolve through the
// learner registry; the strategy selects the ensemble constructor. An empty
// strategy requires exactly one member and returns it directly.
func Build(spec Spec) (model.Learner, error) {
	if err := Validate(spec); err != nil {
		return nil, err
	}

	members := make([]model.Learner, len(spec.Members))
	for i, member := range spec.Members {
		learner, err := learners.New(member.Name, member.Options)
		if err != nil {
			return nil, cmlErrors.Wrapf(err, "compose: member %d", i)
		}
		members[i] = learner
	}

	switch spec.Ensemble {
	case "":
		if len(members) != 1 {
			return nil, cmlErrors.NewValidationError("Ensemble",
				"multiple members need an ensemble strategy", spec.Ensemble)
		}
		return members[0], nil
	case EnsembleVote:
		return ensemble.NewVotingClassifier(members, spec.Options)
	case EnsembleBest:
		return ensemble.NewBestLearnerClassifier(members, spec.Options)
	case EnsembleStack:
		var stacker model.Learner
		if spec.Stacker != nil {
			s, err := learners.New(spec.Stacker.Name, spec.Stacker.Options)
			if err != nil {
				return nil, cmlErrors.Wrap(err, "compose: stacker")
			}
			stacker = s
		}
		return ensemble.NewStackingClassifier(members, stacker, spec.Options)
	default:
		return nil, cmlErrors.NewValidationError("Ensemble",
			"must be one of vote, stack, best", spec.Ensemble)
	}
}

// BuildFromFile loads a spec from a YAML file and builds it.
func BuildFromFile(path string) (model.Learner, error) {
	spec, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Build(spec)
}
