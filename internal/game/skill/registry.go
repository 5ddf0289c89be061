package skill

import "github.com/udisondev/horde/internal/model"

// builders maps archetype → behavior constructor.
// SkillCustom deliberately has no entry.
var builders = map[model.SkillArchetype]func(cfg *FactoryConfig) (Behavior, error){}

// registerBuilder registers a behavior constructor for archetype.
func registerBuilder(a model.SkillArchetype, build func(cfg *FactoryConfig) (Behavior, error)) {
	builders[a] = build
}

// Supported reports whether archetype has a behavior builder.
func Supported(a model.SkillArchetype) bool {
	_, ok := builders[a]
	return ok
}

func init() {
	registerBuilder(model.SkillFireBreath, newFireBreath)
	registerBuilder(model.SkillArrow, newArrow)
	registerBuilder(model.SkillAura, newAura)
	registerBuilder(model.SkillThunder, newThunder)
	registerBuilder(model.SkillMeteor, newMeteor)
}
