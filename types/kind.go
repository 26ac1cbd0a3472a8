package types

// Kind 区域类型判别
type Kind uint8

const (
	Extended  Kind = iota // 扩展区域，拥有内部网格点和方程
	Connector             // 连接区域，零宽度，只提供耦合方程
)

func (k Kind) String() string {
	switch k {
	case Extended:
		return "extended"
	case Connector:
		return "connector"
	}
	return "unknown"
}
