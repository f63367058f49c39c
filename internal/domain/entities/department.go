package entities

// Department groups users and drives two classifications the review engine
// cares about: dual-format departments produce two paired artifacts per
// declared unit (a primary long-form and a secondary short-form variant),
// and media-buyer-like departments measure weekly completion by the
// copy-written flag instead of slot sign-off.
type Department string

const (
	DepartmentCopywriting  Department = "copywriting"
	DepartmentDesign       Department = "design"
	DepartmentVideoEditing Department = "video_editing"
	DepartmentScripting    Department = "scripting"
	DepartmentMediaBuying  Department = "media_buying"
)

// IsDualFormat reports whether one declared unit yields two raw slots,
// alternating primary/secondary by slot parity.
func (d Department) IsDualFormat() bool {
	return d == DepartmentVideoEditing
}

// IsMediaBuyerLike reports whether weekly progress counts copy-written
// tasks rather than fully approved slots.
func (d Department) IsMediaBuyerLike() bool {
	return d == DepartmentMediaBuying
}

func (d Department) IsValid() bool {
	switch d {
	case DepartmentCopywriting, DepartmentDesign, DepartmentVideoEditing, DepartmentScripting, DepartmentMediaBuying:
		return true
	default:
		return false
	}
}
