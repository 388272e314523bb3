package record

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/westhule/combatcap/consts"
	"github.com/westhule/combatcap/decode"
)

const CodecSimpleName = "simple"

func init() {
	RegisterCodec(CodecSimple{})
}

type CodecSimple struct{}

func (c CodecSimple) Marshal(r *Record) ([]byte, error) {
	buff := bytes.NewBuffer(make([]byte, 0))
	// line 1
	// {version} {uuid} {sequence} {capturedAt}
	buff.WriteString(fmt.Sprintf("%d %s %d %d", r.Meta.Version, r.Meta.UUID,
		r.Meta.Sequence, r.Meta.CapturedAt))
	buff.Write([]byte{'\n'})
	// line 2
	// the pipe-delimited sink line
	buff.WriteString(r.FormatLine())
	buff.Write([]byte{'\n'})
	return buff.Bytes(), nil
}

func (c CodecSimple) Unmarshal(data []byte, r *Record) error {
	var err error
	lines := bytes.Split(data, []byte{'\n'})
	if len(lines) < 2 {
		return errors.Wrap(consts.ErrCodec, "expect 2 lines")
	}
	// line 1
	strList := strings.Split(string(lines[0]), " ")
	if len(strList) != 4 {
		return errors.Wrap(consts.ErrCodec, "meta line")
	}
	r.Meta.Version, err = strconv.Atoi(strList[0])
	if err != nil {
		return err
	}
	r.Meta.UUID = strList[1]
	seq, err := strconv.ParseUint(strList[2], 10, 32)
	if err != nil {
		return err
	}
	r.Meta.Sequence = uint32(seq)
	r.Meta.CapturedAt, err = strconv.ParseInt(strList[3], 10, 64)
	if err != nil {
		return err
	}
	// line 2
	return parseLine(string(lines[1]), r)
}

func (c CodecSimple) Name() string {
	return CodecSimpleName
}

func parseLine(line string, r *Record) error {
	fields := strings.Split(line, "|")
	if len(fields) != 24 {
		return errors.Wrapf(consts.ErrCodec, "expect 24 fields, got %v", len(fields))
	}
	r.UsedBy = fields[1]
	r.Target = fields[2]
	r.SkillName = fields[3]
	dmg, err := strconv.ParseUint(fields[4], 10, 32)
	if err != nil {
		return err
	}
	r.Damage = uint32(dmg)

	names := make([]string, 0, 4)
	for i, flagName := range lineFlagOrder {
		v, err := strconv.Atoi(fields[5+i])
		if err != nil {
			return err
		}
		if int2bool(v) {
			names = append(names, flagName)
		}
	}
	r.Flags = decode.FlagBitsFromNames(names)

	skillID, err := strconv.ParseInt(fields[23], 10, 32)
	if err != nil {
		return err
	}
	r.SkillID = int32(skillID)
	return nil
}
