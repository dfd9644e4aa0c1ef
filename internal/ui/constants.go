// Package ui provides constants for layout calculations and configuration.
package ui

// Layout constants for panel sizing
const (
	// HeaderHeight is the height of the header in lines
	HeaderHeight = 1

	// FooterHeight is the height of the footer in lines
	FooterHeight = 1

	// BorderSize is the total border width (1 on each side)
	BorderSize = 2

	// TextareaHeight is the number of lines for the message input textarea
	TextareaHeight = 3

	// TextareaBorderHeight is the border size around the textarea
	TextareaBorderHeight = 2

	// InputPaddingWidth is the horizontal padding inside the input area (Padding(0, 1) = 1 left + 1 right)
	InputPaddingWidth = 2

	// InputTotalHeight is the total height of the input area (textarea + borders)
	InputTotalHeight = TextareaHeight + TextareaBorderHeight

	// DefaultWrapWidth is the default width for text wrapping when viewport width is unknown
	DefaultWrapWidth = 80

	// MinTerminalWidth and MinTerminalHeight bound the layout from below
	MinTerminalWidth  = 40
	MinTerminalHeight = 12
)

// Bubble layout
const (
	// BubbleWidthPercent is the share of the conversation width a bubble may take
	BubbleWidthPercent = 70

	// MinBubbleWidth keeps very narrow terminals readable
	MinBubbleWidth = 12

	// BubbleChrome is the horizontal space a bubble's border and padding use
	BubbleChrome = BorderSize + 2
)

// Message input limits
const (
	// MessageCharLimit caps a single outgoing message
	MessageCharLimit = 4000
)

// Modal dimensions
const (
	// ModalWidth is the default width of modals
	ModalWidth = 60

	// ModalInputCharLimit is the character limit for modal text inputs
	ModalInputCharLimit = 256
)
