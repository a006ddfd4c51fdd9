package packet

// Client opcodes.
const (
	C_ENTER_WORLD byte = 5  // [S name]
	C_MOVE        byte = 10 // [F x][F y][F z][F o]
	C_ATTACK      byte = 23 // [Q target guid]
	C_CHAT        byte = 40 // [S text]
	C_PING        byte = 57
)

// Server opcodes.
const (
	S_PUT_OBJECT    byte = 101 // [Q guid][C kind][F x][F y][F z][F o][S name]
	S_MOVE_OBJECT   byte = 102 // [Q guid][F x][F y][F z][F o]
	S_REMOVE_OBJECT byte = 103 // [Q guid]
	S_CHAT          byte = 104 // [S text]
	S_PONG          byte = 105
)
