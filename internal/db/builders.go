package db

// The builders below do the common "create + register + attach" sequence
// in one call so loaders don't repeat the boilerplate, per spec §4.1.

func (d *DB) CreatePeripheralType(name string) EntityID {
	id := d.CreateEntity()
	d.Register(id, KindPeripheralType)
	d.SetName(id, name)
	return id
}

func (d *DB) CreateRegisterGroup(parent EntityID, name string) (EntityID, error) {
	id := d.CreateEntity()
	d.Register(id, KindRegisterGroupType)
	d.SetName(id, name)
	if err := d.AddChild(parent, id); err != nil {
		return id, err
	}
	return id, nil
}

func (d *DB) CreateRegister(parent EntityID, name string, offset, size int) (EntityID, error) {
	id := d.CreateEntity()
	d.Register(id, KindRegisterType)
	d.SetName(id, name)
	d.SetOffset(id, offset)
	d.SetSize(id, size)
	if err := d.AddChild(parent, id); err != nil {
		return id, err
	}
	return id, nil
}

func (d *DB) CreateField(parent EntityID, name string, offset, size int) (EntityID, error) {
	id := d.CreateEntity()
	d.Register(id, KindFieldType)
	d.SetName(id, name)
	d.SetOffset(id, offset)
	d.SetSize(id, size)
	if err := d.AddChild(parent, id); err != nil {
		return id, err
	}
	return id, nil
}

func (d *DB) CreateEnum(parent EntityID, name string) (EntityID, error) {
	id := d.CreateEntity()
	d.Register(id, KindEnumType)
	d.SetName(id, name)
	if err := d.AddChild(parent, id); err != nil {
		return id, err
	}
	return id, nil
}

func (d *DB) CreateEnumField(parent EntityID, name string, value int64) (EntityID, error) {
	id := d.CreateEntity()
	d.Register(id, KindEnumFieldType)
	d.SetName(id, name)
	d.enumFieldValue[id] = value
	if err := d.AddChild(parent, id); err != nil {
		return id, err
	}
	return id, nil
}

func (d *DB) EnumFieldValue(id EntityID) (int64, bool) {
	v, ok := d.enumFieldValue[id]
	return v, ok
}

func (d *DB) CreateMode(parent EntityID, name, value, qualifier string) (EntityID, error) {
	id := d.CreateEntity()
	d.Register(id, KindModeType)
	d.SetName(id, name)
	d.modePayload[id] = ModePayload{Value: value, Qualifier: qualifier}
	if err := d.AddChild(parent, id); err != nil {
		return id, err
	}
	return id, nil
}

func (d *DB) ModePayloadOf(id EntityID) (ModePayload, bool) {
	v, ok := d.modePayload[id]
	return v, ok
}

func (d *DB) CreateDevice(name string) EntityID {
	id := d.CreateEntity()
	d.Register(id, KindDeviceInstance)
	d.SetName(id, name)
	return id
}

// CreatePeripheralInstance places typeID at offset under parent (a device
// or, for nested register-group instances, another instance.peripheral).
func (d *DB) CreatePeripheralInstance(parent EntityID, name string, typeID EntityID, offset int) (EntityID, error) {
	id := d.CreateEntity()
	d.Register(id, KindPeripheralInstance)
	d.SetName(id, name)
	d.SetOffset(id, offset)
	if err := d.SetTypeRef(id, typeID); err != nil {
		return id, err
	}
	if err := d.AddChild(parent, id); err != nil {
		return id, err
	}
	return id, nil
}

func (d *DB) CreateInterrupt(parent EntityID, name string, value int) (EntityID, error) {
	id := d.CreateEntity()
	d.Register(id, KindInterruptInstance)
	d.SetName(id, name)
	d.interruptValue[id] = value
	if err := d.AddChild(parent, id); err != nil {
		return id, err
	}
	return id, nil
}

func (d *DB) InterruptValue(id EntityID) (int, bool) {
	v, ok := d.interruptValue[id]
	return v, ok
}
