package storage

// Packing constants of the material workflow: 64 items fill a group and
// 27 groups fill a box.
const (
	ItemsPerGroup = 64
	GroupsPerBox  = 27
)

// Breakdown splits a quantity into full boxes, leftover full groups, and
// loose pieces.
func Breakdown(quantity int) (boxes, groups, pieces int) {
	if quantity < 0 {
		return 0, 0, 0
	}
	boxes = quantity / (ItemsPerGroup * GroupsPerBox)
	groups = quantity/ItemsPerGroup - boxes*GroupsPerBox
	pieces = quantity - (boxes*GroupsPerBox+groups)*ItemsPerGroup
	return boxes, groups, pieces
}
