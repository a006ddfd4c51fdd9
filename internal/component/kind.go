package component

// ObjectKind identifies the concrete variant behind an object reference.
type ObjectKind uint8

const (
	KindCreature ObjectKind = iota + 1
	KindPet
	KindGameObject
	KindDynamicObject
	KindTransport
	KindPlayer
)

func (k ObjectKind) String() string {
	switch k {
	case KindCreature:
		return "creature"
	case KindPet:
		return "pet"
	case KindGameObject:
		return "gameobject"
	case KindDynamicObject:
		return "dynamicobject"
	case KindTransport:
		return "transport"
	case KindPlayer:
		return "player"
	default:
		return "unknown"
	}
}

// ParseObjectKind maps a data-table kind name to an ObjectKind.
func ParseObjectKind(s string) (ObjectKind, bool) {
	for k := KindCreature; k <= KindPlayer; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}
