package telemetry

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/linecar/pkg/car"
	"github.com/robotalks/linecar/pkg/control"
	"github.com/robotalks/linecar/pkg/line"
	"github.com/robotalks/linecar/pkg/trajectory"
	"github.com/robotalks/linecar/pkg/units"
)

// TypeID Groups
const (
	GroupTelemetry uint32 = 0x00010000
)

// TypeIDs
const (
	LinesReportTypeID      uint32 = TypeIDKindEvent | GroupTelemetry | 0x0001
	ControlReportTypeID    uint32 = TypeIDKindEvent | GroupTelemetry | 0x0002
	TrajectoryReportTypeID uint32 = TypeIDKindEvent | GroupTelemetry | 0x0003
)

// LineState is a tracked line. Lengths are in meters, angles in radians.
type LineState struct {
	Id              uint32  `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	PosFront        float64 `protobuf:"fixed64,2,opt,name=pos_front,json=posFront,proto3" json:"pos_front,omitempty"`
	PosRear         float64 `protobuf:"fixed64,3,opt,name=pos_rear,json=posRear,proto3" json:"pos_rear,omitempty"`
	Angle           float64 `protobuf:"fixed64,4,opt,name=angle,proto3" json:"angle,omitempty"`
	AngularVelocity float64 `protobuf:"fixed64,5,opt,name=angular_velocity,json=angularVelocity,proto3" json:"angular_velocity,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *LineState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LineState) Reset() { *m = LineState{} }

// String implements proto.Message.
func (m *LineState) String() string { return proto.CompactTextString(m) }

// NewLineState converts a tracked line.
func NewLineState(ln line.Line) *LineState {
	return &LineState{
		Id:              ln.ID,
		PosFront:        ln.PosFront.Meters(),
		PosRear:         ln.PosRear.Meters(),
		Angle:           ln.Angle.Radians(),
		AngularVelocity: ln.AngularVelocity.RadiansPerSecond(),
	}
}

// Line converts back to a tracked line.
func (m *LineState) Line() line.Line {
	return line.Line{
		ID:              m.Id,
		PosFront:        units.Length(m.PosFront),
		PosRear:         units.Length(m.PosRear),
		Angle:           units.Angle(m.Angle),
		AngularVelocity: units.AngularVelocity(m.AngularVelocity),
	}
}

// LinesReport is the output of the line tracker in one cycle.
type LinesReport struct {
	Cycle      uint64       `protobuf:"varint,1,opt,name=cycle,proto3" json:"cycle,omitempty"`
	Lines      []*LineState `protobuf:"bytes,2,rep,name=lines,proto3" json:"lines,omitempty"`
	MainLineId uint32       `protobuf:"varint,3,opt,name=main_line_id,json=mainLineId,proto3" json:"main_line_id,omitempty"`
	Pattern    string       `protobuf:"bytes,4,opt,name=pattern,proto3" json:"pattern,omitempty"`
}

// NewMessage implements SerializableMessage.
func (m *LinesReport) NewMessage() SerializableMessage { return &LinesReport{} }

// TypeID implements SerializableMessage.
func (m *LinesReport) TypeID() uint32 { return LinesReportTypeID }

// ProtoMessage implements proto.Message.
func (m *LinesReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LinesReport) Reset() { *m = LinesReport{} }

// String implements proto.Message.
func (m *LinesReport) String() string { return proto.CompactTextString(m) }

// NewLinesReport creates a LinesReport from the state of a tracker.
func NewLinesReport(cycle uint64, t *line.Tracker) *LinesReport {
	m := &LinesReport{
		Cycle:      cycle,
		MainLineId: t.MainLine().ID,
		Pattern:    t.Pattern().String(),
	}
	for _, ln := range t.Lines() {
		m.Lines = append(m.Lines, NewLineState(ln))
	}
	return m
}

// MainLine looks up the main line in the reported lines.
func (m *LinesReport) MainLine() (line.Line, bool) {
	for _, ln := range m.Lines {
		if ln.Id == m.MainLineId {
			return ln.Line(), true
		}
	}
	return line.Line{}, false
}

// ControlReport is the output of the controllers in one cycle.
type ControlReport struct {
	Cycle       uint64  `protobuf:"varint,1,opt,name=cycle,proto3" json:"cycle,omitempty"`
	Speed       float64 `protobuf:"fixed64,2,opt,name=speed,proto3" json:"speed,omitempty"`
	Steering    float64 `protobuf:"fixed64,3,opt,name=steering,proto3" json:"steering,omitempty"`
	RearSteer   bool    `protobuf:"varint,4,opt,name=rear_steer,json=rearSteer,proto3" json:"rear_steer,omitempty"`
	ActualPos   float64 `protobuf:"fixed64,5,opt,name=actual_pos,json=actualPos,proto3" json:"actual_pos,omitempty"`
	ActualAngle float64 `protobuf:"fixed64,6,opt,name=actual_angle,json=actualAngle,proto3" json:"actual_angle,omitempty"`
	TargetPos   float64 `protobuf:"fixed64,7,opt,name=target_pos,json=targetPos,proto3" json:"target_pos,omitempty"`
	TargetAngle float64 `protobuf:"fixed64,8,opt,name=target_angle,json=targetAngle,proto3" json:"target_angle,omitempty"`
	RampTimeMs  int64   `protobuf:"varint,9,opt,name=ramp_time_ms,json=rampTimeMs,proto3" json:"ramp_time_ms,omitempty"`
}

// NewMessage implements SerializableMessage.
func (m *ControlReport) NewMessage() SerializableMessage { return &ControlReport{} }

// TypeID implements SerializableMessage.
func (m *ControlReport) TypeID() uint32 { return ControlReportTypeID }

// ProtoMessage implements proto.Message.
func (m *ControlReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ControlReport) Reset() { *m = ControlReport{} }

// String implements proto.Message.
func (m *ControlReport) String() string { return proto.CompactTextString(m) }

// NewControlReport creates a ControlReport.
func NewControlReport(cycle uint64, data control.ControlData, steering units.Angle) *ControlReport {
	lc := data.LineControl
	return &ControlReport{
		Cycle:       cycle,
		Speed:       data.Speed.MetersPerSecond(),
		Steering:    steering.Radians(),
		RearSteer:   data.RearSteerEnabled,
		ActualPos:   lc.Actual.Pos.Meters(),
		ActualAngle: lc.Actual.Angle.Radians(),
		TargetPos:   lc.Target.Pos.Meters(),
		TargetAngle: lc.Target.Angle.Radians(),
		RampTimeMs:  data.RampTime.Milliseconds(),
	}
}

// TrajectoryReport is the progress of the car along the trajectory.
type TrajectoryReport struct {
	Cycle        uint64  `protobuf:"varint,1,opt,name=cycle,proto3" json:"cycle,omitempty"`
	X            float64 `protobuf:"fixed64,2,opt,name=x,proto3" json:"x,omitempty"`
	Y            float64 `protobuf:"fixed64,3,opt,name=y,proto3" json:"y,omitempty"`
	Angle        float64 `protobuf:"fixed64,4,opt,name=angle,proto3" json:"angle,omitempty"`
	Speed        float64 `protobuf:"fixed64,5,opt,name=speed,proto3" json:"speed,omitempty"`
	Distance     float64 `protobuf:"fixed64,6,opt,name=distance,proto3" json:"distance,omitempty"`
	Length       float64 `protobuf:"fixed64,7,opt,name=length,proto3" json:"length,omitempty"`
	Covered      float64 `protobuf:"fixed64,8,opt,name=covered,proto3" json:"covered,omitempty"`
	SectionStart uint32  `protobuf:"varint,9,opt,name=section_start,json=sectionStart,proto3" json:"section_start,omitempty"`
	Configs      uint32  `protobuf:"varint,10,opt,name=configs,proto3" json:"configs,omitempty"`
}

// NewMessage implements SerializableMessage.
func (m *TrajectoryReport) NewMessage() SerializableMessage { return &TrajectoryReport{} }

// TypeID implements SerializableMessage.
func (m *TrajectoryReport) TypeID() uint32 { return TrajectoryReportTypeID }

// ProtoMessage implements proto.Message.
func (m *TrajectoryReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *TrajectoryReport) Reset() { *m = TrajectoryReport{} }

// String implements proto.Message.
func (m *TrajectoryReport) String() string { return proto.CompactTextString(m) }

// NewTrajectoryReport creates a TrajectoryReport from car state and the
// trajectory being followed.
func NewTrajectoryReport(cycle uint64, c car.Props, t *trajectory.Trajectory) *TrajectoryReport {
	return &TrajectoryReport{
		Cycle:        cycle,
		X:            c.Pose.Pos.X.Meters(),
		Y:            c.Pose.Pos.Y.Meters(),
		Angle:        c.Pose.Angle.Radians(),
		Speed:        c.Speed.MetersPerSecond(),
		Distance:     c.Distance.Meters(),
		Length:       t.Length().Meters(),
		Covered:      t.CoveredDistance().Meters(),
		SectionStart: uint32(t.SectionStart()),
		Configs:      uint32(len(t.Configs())),
	}
}
