package shardfuse

// Width-fixed aliases for the common instantiations. The 8-bit variants
// bound the false-positive rate at about 0.39%, the 16-bit variants at
// about 0.0015% for roughly double the space.
type (
	Filter8  = Filter[uint8]
	Filter16 = Filter[uint16]

	Sink8  = Sink[uint8]
	Sink16 = Sink[uint16]

	Source8  = Source[uint8]
	Source16 = Source[uint16]

	FilterSource8  = FilterSource[uint8]
	FilterSource16 = FilterSource[uint16]
)
