package battle

// 卡牌图鉴（静态数据，与客户端共用同一份定义）
var catalog = []Card{
	{ID: "basic_warrior", Name: "Novice Warrior", Description: "A brave young warrior ready for battle", ManaCost: 2, Attack: 2, Health: 3, Type: CardTypeCreature, Rarity: "common"},
	{ID: "basic_mage", Name: "Apprentice Mage", Description: "A student of the magical arts", ManaCost: 2, Attack: 1, Health: 4, Type: CardTypeCreature, Rarity: "common", Keywords: []string{"Spellpower"}},
	{ID: "basic_archer", Name: "Forest Archer", Description: "Swift and accurate with a bow", ManaCost: 3, Attack: 3, Health: 2, Type: CardTypeCreature, Rarity: "common", Keywords: []string{"Range"}},
	{ID: "basic_spell", Name: "Lightning Bolt", Description: "Deal 3 damage to any target", ManaCost: 1, Attack: 3, Type: CardTypeSpell, Rarity: "common", Effect: EffectDamage},
	{ID: "basic_heal", Name: "Healing Potion", Description: "Restore 5 health to any target", ManaCost: 1, Attack: 5, Type: CardTypeSpell, Rarity: "common", Effect: EffectHeal},
	{ID: "knight_defender", Name: "Royal Knight", Description: "A noble defender of the realm", ManaCost: 4, Attack: 3, Health: 6, Type: CardTypeCreature, Rarity: "rare", Keywords: []string{"Taunt", "Armor"}},
	{ID: "fire_mage", Name: "Flame Conjurer", Description: "Master of fire magic", ManaCost: 3, Attack: 2, Health: 3, Type: CardTypeCreature, Rarity: "rare", Keywords: []string{"Spellpower", "Burning"}},
	{ID: "shadow_assassin", Name: "Shadow Stalker", Description: "Strikes from the darkness", ManaCost: 3, Attack: 4, Health: 2, Type: CardTypeCreature, Rarity: "rare", Keywords: []string{"Stealth", "Poison"}},
	{ID: "fireball", Name: "Fireball", Description: "Deal 6 damage to target and 2 to adjacent enemies", ManaCost: 4, Attack: 6, Type: CardTypeSpell, Rarity: "rare", Effect: EffectDamage},
	{ID: "dragon_knight", Name: "Dragonscale Champion", Description: "A legendary warrior bonded with dragons", ManaCost: 6, Attack: 5, Health: 7, Type: CardTypeCreature, Rarity: "epic", Keywords: []string{"Flying", "Dragonborn"}},
	{ID: "archmage", Name: "Arcane Archmage", Description: "Master of all magical schools", ManaCost: 7, Attack: 4, Health: 6, Type: CardTypeCreature, Rarity: "epic", Keywords: []string{"Spellpower", "Magical Immunity"}},
	{ID: "demon_lord", Name: "Infernal Lord", Description: "A powerful demon from the depths", ManaCost: 8, Attack: 7, Health: 5, Type: CardTypeCreature, Rarity: "epic", Keywords: []string{"Fear", "Hellfire"}},
	{ID: "phoenix_eternal", Name: "Eternal Phoenix", Description: "Reborn from its own ashes when destroyed", ManaCost: 9, Attack: 6, Health: 8, Type: CardTypeCreature, Rarity: "legendary", Keywords: []string{"Flying", "Rebirth", "Legendary"}},
	{ID: "time_wizard", Name: "Chronos Mage", Description: "Controller of time itself", ManaCost: 10, Attack: 3, Health: 9, Type: CardTypeCreature, Rarity: "legendary", Keywords: []string{"Time Magic", "Legendary"}},
	{ID: "world_tree", Name: "Yggdrasil Seedling", Description: "The world tree in its youth", ManaCost: 8, Attack: 0, Health: 12, Type: CardTypeCreature, Rarity: "legendary", Keywords: []string{"Growth", "Nature Magic", "Legendary"}},
}

var catalogByID = func() map[string]Card {
	m := make(map[string]Card, len(catalog))
	for _, c := range catalog {
		m[c.ID] = c
	}
	return m
}()

// CardByID 根据卡牌 ID 查静态定义
func CardByID(id string) (Card, bool) {
	c, ok := catalogByID[id]
	return c, ok
}

// AllCards 返回整个图鉴（复制一份，防止外部修改）
func AllCards() []Card {
	out := make([]Card, len(catalog))
	copy(out, catalog)
	return out
}

// DefaultDeck 默认卡组，玩家没有配置卡组时使用
func DefaultDeck() []string {
	return []string{
		"basic_warrior", "basic_warrior",
		"basic_mage", "basic_mage",
		"basic_archer", "basic_archer",
		"basic_spell", "basic_spell",
		"basic_heal", "basic_heal",
		"knight_defender", "knight_defender",
		"fire_mage", "fire_mage",
		"shadow_assassin", "shadow_assassin",
		"fireball", "fireball",
		"dragon_knight",
		"archmage",
	}
}
