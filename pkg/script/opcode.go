package script

import "fmt"

// Opcode is a single script instruction. The set is closed: values without
// a name in opcodeNames are unknown and fail validation.
type Opcode uint8

const (
	// Constants push Num(n).
	Op0  Opcode = 0x00
	Op1  Opcode = 0x01
	Op2  Opcode = 0x02
	Op3  Opcode = 0x03
	Op4  Opcode = 0x04
	Op5  Opcode = 0x05
	Op6  Opcode = 0x06
	Op7  Opcode = 0x07
	Op8  Opcode = 0x08
	Op9  Opcode = 0x09
	Op10 Opcode = 0x0a
	Op11 Opcode = 0x0b
	Op12 Opcode = 0x0c
	Op13 Opcode = 0x0d
	Op14 Opcode = 0x0e
	Op15 Opcode = 0x0f
	Op16 Opcode = 0x10

	// Flow control.
	OpNop    Opcode = 0x20
	OpIf     Opcode = 0x21
	OpNotIf  Opcode = 0x22
	OpElse   Opcode = 0x23
	OpEndIf  Opcode = 0x24
	OpVerify Opcode = 0x25
	OpBurn   Opcode = 0x26

	// Stack manipulation.
	OpToAltStack   Opcode = 0x30
	OpFromAltStack Opcode = 0x31
	Op2Drop        Opcode = 0x32
	Op2Dup         Opcode = 0x33
	Op3Dup         Opcode = 0x34
	Op2Over        Opcode = 0x35
	Op2Rot         Opcode = 0x36
	Op2Swap        Opcode = 0x37
	OpIfDup        Opcode = 0x38
	OpDepth        Opcode = 0x39
	OpDrop         Opcode = 0x3a
	OpDup          Opcode = 0x3b
	OpNip          Opcode = 0x3c
	OpOver         Opcode = 0x3d
	OpPick         Opcode = 0x3e
	OpRoll         Opcode = 0x3f
	OpRot          Opcode = 0x40
	OpSwap         Opcode = 0x41
	OpTuck         Opcode = 0x42

	// Splice.
	OpCat    Opcode = 0x50
	OpSubstr Opcode = 0x51
	OpLeft   Opcode = 0x52
	OpRight  Opcode = 0x53
	OpSize   Opcode = 0x54

	// Bitwise logic.
	OpInvert      Opcode = 0x60
	OpAnd         Opcode = 0x61
	OpOr          Opcode = 0x62
	OpXor         Opcode = 0x63
	OpEqual       Opcode = 0x64
	OpEqualVerify Opcode = 0x65

	// Arithmetic on Num values; overflow fails the script.
	Op1Add               Opcode = 0x70
	Op1Sub               Opcode = 0x71
	Op2Mul               Opcode = 0x72
	Op2Div               Opcode = 0x73
	OpNot                Opcode = 0x74
	Op0NotEqual          Opcode = 0x75
	OpAdd                Opcode = 0x76
	OpSub                Opcode = 0x77
	OpMul                Opcode = 0x78
	OpDiv                Opcode = 0x79
	OpMod                Opcode = 0x7a
	OpLShift             Opcode = 0x7b
	OpRShift             Opcode = 0x7c
	OpBoolAnd            Opcode = 0x7d
	OpBoolOr             Opcode = 0x7e
	OpNumEqual           Opcode = 0x7f
	OpNumEqualVerify     Opcode = 0x80
	OpNumNotEqual        Opcode = 0x81
	OpLessThan           Opcode = 0x82
	OpGreaterThan        Opcode = 0x83
	OpLessThanOrEqual    Opcode = 0x84
	OpGreaterThanOrEqual Opcode = 0x85
	OpMin                Opcode = 0x86
	OpMax                Opcode = 0x87
	OpWithin             Opcode = 0x88

	// Crypto. OP_NOP11 and OP_NOP12 occupy retired hash slots.
	OpSha3                Opcode = 0x90
	OpHash256             Opcode = 0x91
	OpNop11               Opcode = 0x92
	OpNop12               Opcode = 0x93
	OpCheckSig            Opcode = 0x94
	OpCheckSigVerify      Opcode = 0x95
	OpCheckMultiSig       Opcode = 0x96
	OpCheckMultiSigVerify Opcode = 0x97

	// Asset creation marker.
	OpCreate Opcode = 0xa0

	// Lock-time check and reserved no-ops.
	OpNop1                Opcode = 0xb0
	OpCheckLockTimeVerify Opcode = 0xb1
	OpNop3                Opcode = 0xb2
	OpNop4                Opcode = 0xb3
	OpNop5                Opcode = 0xb4
	OpNop6                Opcode = 0xb5
	OpNop7                Opcode = 0xb6
	OpNop8                Opcode = 0xb7
	OpNop9                Opcode = 0xb8
	OpNop10               Opcode = 0xb9
)

// OpFalse and OpTrue alias the numeric constants.
const (
	OpFalse = Op0
	OpTrue  = Op1
)

var opcodeNames = [256]string{
	Op0:                   "OP_0",
	Op1:                   "OP_1",
	Op2:                   "OP_2",
	Op3:                   "OP_3",
	Op4:                   "OP_4",
	Op5:                   "OP_5",
	Op6:                   "OP_6",
	Op7:                   "OP_7",
	Op8:                   "OP_8",
	Op9:                   "OP_9",
	Op10:                  "OP_10",
	Op11:                  "OP_11",
	Op12:                  "OP_12",
	Op13:                  "OP_13",
	Op14:                  "OP_14",
	Op15:                  "OP_15",
	Op16:                  "OP_16",
	OpNop:                 "OP_NOP",
	OpIf:                  "OP_IF",
	OpNotIf:               "OP_NOTIF",
	OpElse:                "OP_ELSE",
	OpEndIf:               "OP_ENDIF",
	OpVerify:              "OP_VERIFY",
	OpBurn:                "OP_BURN",
	OpToAltStack:          "OP_TOALTSTACK",
	OpFromAltStack:        "OP_FROMALTSTACK",
	Op2Drop:               "OP_2DROP",
	Op2Dup:                "OP_2DUP",
	Op3Dup:                "OP_3DUP",
	Op2Over:               "OP_2OVER",
	Op2Rot:                "OP_2ROT",
	Op2Swap:               "OP_2SWAP",
	OpIfDup:               "OP_IFDUP",
	OpDepth:               "OP_DEPTH",
	OpDrop:                "OP_DROP",
	OpDup:                 "OP_DUP",
	OpNip:                 "OP_NIP",
	OpOver:                "OP_OVER",
	OpPick:                "OP_PICK",
	OpRoll:                "OP_ROLL",
	OpRot:                 "OP_ROT",
	OpSwap:                "OP_SWAP",
	OpTuck:                "OP_TUCK",
	OpCat:                 "OP_CAT",
	OpSubstr:              "OP_SUBSTR",
	OpLeft:                "OP_LEFT",
	OpRight:               "OP_RIGHT",
	OpSize:                "OP_SIZE",
	OpInvert:              "OP_INVERT",
	OpAnd:                 "OP_AND",
	OpOr:                  "OP_OR",
	OpXor:                 "OP_XOR",
	OpEqual:               "OP_EQUAL",
	OpEqualVerify:         "OP_EQUALVERIFY",
	Op1Add:                "OP_1ADD",
	Op1Sub:                "OP_1SUB",
	Op2Mul:                "OP_2MUL",
	Op2Div:                "OP_2DIV",
	OpNot:                 "OP_NOT",
	Op0NotEqual:           "OP_0NOTEQUAL",
	OpAdd:                 "OP_ADD",
	OpSub:                 "OP_SUB",
	OpMul:                 "OP_MUL",
	OpDiv:                 "OP_DIV",
	OpMod:                 "OP_MOD",
	OpLShift:              "OP_LSHIFT",
	OpRShift:              "OP_RSHIFT",
	OpBoolAnd:             "OP_BOOLAND",
	OpBoolOr:              "OP_BOOLOR",
	OpNumEqual:            "OP_NUMEQUAL",
	OpNumEqualVerify:      "OP_NUMEQUALVERIFY",
	OpNumNotEqual:         "OP_NUMNOTEQUAL",
	OpLessThan:            "OP_LESSTHAN",
	OpGreaterThan:         "OP_GREATERTHAN",
	OpLessThanOrEqual:     "OP_LESSTHANOREQUAL",
	OpGreaterThanOrEqual:  "OP_GREATERTHANOREQUAL",
	OpMin:                 "OP_MIN",
	OpMax:                 "OP_MAX",
	OpWithin:              "OP_WITHIN",
	OpSha3:                "OP_SHA3",
	OpHash256:             "OP_HASH256",
	OpNop11:               "OP_NOP11",
	OpNop12:               "OP_NOP12",
	OpCheckSig:            "OP_CHECKSIG",
	OpCheckSigVerify:      "OP_CHECKSIGVERIFY",
	OpCheckMultiSig:       "OP_CHECKMULTISIG",
	OpCheckMultiSigVerify: "OP_CHECKMULTISIGVERIFY",
	OpCreate:              "OP_CREATE",
	OpNop1:                "OP_NOP1",
	OpCheckLockTimeVerify: "OP_CHECKLOCKTIMEVERIFY",
	OpNop3:                "OP_NOP3",
	OpNop4:                "OP_NOP4",
	OpNop5:                "OP_NOP5",
	OpNop6:                "OP_NOP6",
	OpNop7:                "OP_NOP7",
	OpNop8:                "OP_NOP8",
	OpNop9:                "OP_NOP9",
	OpNop10:               "OP_NOP10",
}

// String returns the opcode mnemonic, or OP_UNKNOWN(0x..) for unassigned values.
func (op Opcode) String() string {
	if name := opcodeNames[op]; name != "" {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN(0x%02x)", uint8(op))
}

// Known reports whether op is part of the instruction set.
func (op Opcode) Known() bool {
	return opcodeNames[op] != ""
}

// IsReserved reports whether op is a reserved no-op that fails when executed.
func (op Opcode) IsReserved() bool {
	switch op {
	case OpNop1, OpNop3, OpNop4, OpNop5, OpNop6, OpNop7, OpNop8, OpNop9, OpNop10, OpNop11, OpNop12:
		return true
	}
	return false
}

// IsConditional reports whether op is evaluated inside a non-executing branch.
func (op Opcode) IsConditional() bool {
	switch op {
	case OpIf, OpNotIf, OpElse, OpEndIf:
		return true
	}
	return false
}

// IsConstant reports whether op pushes a small integer.
func (op Opcode) IsConstant() bool {
	return op <= Op16
}

// OpcodeByName looks up an opcode by mnemonic.
func OpcodeByName(name string) (Opcode, bool) {
	for i, n := range opcodeNames {
		if n == name {
			return Opcode(i), true
		}
	}
	return 0, false
}
