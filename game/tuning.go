package game

const (
	FrameWidth     = 1920.0 // tracking camera color frame
	FrameHeight    = 1080.0
	BallCount      = 30
	BallRadius     = 60.0
	GravityY       = 0.5 // per tick, added straight to position
	WallDamping    = 0.6
	HandRadius     = 50.0
	HandMass       = 200.0 // heavier than any ball so hands win pushes
	BallSideMargin = 4.0   // radii kept free at the left and right edges
	BallFloorGap   = 2.0   // radii kept free above the bottom edge
	LeftHandJoint  = "HandTipLeft"
	RightHandJoint = "HandTipRight"
)
