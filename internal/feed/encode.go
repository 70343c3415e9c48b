package feed

import "encoding/binary"

// EncodeAdd serializes an Add Order record in wire format (36 bytes).
// It is used by the feed generator tool and by tests that build
// synthetic feeds in-process.
func EncodeAdd(m AddOrder) []byte {
	buf := make([]byte, lenAdd)
	buf[0] = tagAdd
	binary.LittleEndian.PutUint64(buf[1:9], m.TsUs)
	binary.LittleEndian.PutUint64(buf[9:17], m.OrderID)
	copy(buf[17:23], m.Symbol[:])
	buf[23] = byte(m.Side)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(m.PxNano))
	binary.LittleEndian.PutUint32(buf[32:36], m.Qty)
	return buf
}

// EncodeModify serializes a Modify Order record in wire format (29 bytes).
func EncodeModify(m ModifyOrder) []byte {
	buf := make([]byte, lenModify)
	buf[0] = tagModify
	binary.LittleEndian.PutUint64(buf[1:9], m.TsUs)
	binary.LittleEndian.PutUint64(buf[9:17], m.OrderID)
	binary.LittleEndian.PutUint64(buf[17:25], uint64(m.NewPxNano))
	binary.LittleEndian.PutUint32(buf[25:29], m.NewQty)
	return buf
}

// EncodeExecute serializes an Execute Order record in wire format (21 bytes).
func EncodeExecute(m ExecuteOrder) []byte {
	buf := make([]byte, lenExec)
	buf[0] = tagExec
	binary.LittleEndian.PutUint64(buf[1:9], m.TsUs)
	binary.LittleEndian.PutUint64(buf[9:17], m.OrderID)
	binary.LittleEndian.PutUint32(buf[17:21], m.ExecQty)
	return buf
}

// EncodeDelete serializes a Delete Order record in wire format (17 bytes).
func EncodeDelete(m DeleteOrder) []byte {
	buf := make([]byte, lenDelete)
	buf[0] = tagDelete
	binary.LittleEndian.PutUint64(buf[1:9], m.TsUs)
	binary.LittleEndian.PutUint64(buf[9:17], m.OrderID)
	return buf
}
