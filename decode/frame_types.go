package decode

// Frame types this package knows how to decode.
const (
	FrameSkillInfo   int32 = 20301
	FrameSkillAction int32 = 20306
	FrameSkillDamage int32 = 20308
	FrameSkillState  int32 = 20313
	FrameChangeHp    int32 = 20318
)

// DefaultExcludeTypes lists chatty frame types (movement, rotation and
// periodic sync) that carry nothing useful for damage attribution.
// They are dropped during extraction, before decoding.
var DefaultExcludeTypes = []int32{20002, 20104, 20105, 20117, 20204}
